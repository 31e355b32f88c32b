package testutil

// WithStandardVault adds the standard block index dataset:
//
//	notes.md        done ^a1, open ^a2
//	sub/plan.md     prose ^intro, in-progress ^a1
//	ignored.txt     not markdown
//	.hidden/...     inside a hidden directory
func (b *Builder) WithStandardVault() *Builder {
	return b.
		WithDoc("notes.md",
			Task("Done thing", Done(), BlockID("a1")),
			Task("Open thing", BlockID("a2"))).
		WithDoc("sub/plan.md",
			Prose("Intro", BlockID("intro")),
			Task("Working", Status('/'), BlockID("a1"))).
		WithDoc("ignored.txt", Task("not markdown", BlockID("txt"))).
		WithDoc(".hidden/secret.md", Task("hidden", BlockID("h")))
}

// WithAgilePlan adds a document with an initiative, epic and story nested
// as tasks.
//
//	plan.md
//	- [ ] Launch ^launch
//	  - [ ] Onboarding ^onboarding
//	    - [ ] Signup form ^signup
func (b *Builder) WithAgilePlan(path string) *Builder {
	return b.WithDoc(path,
		Task("Launch", BlockID("launch")),
		Task("Onboarding", Indent(1), BlockID("onboarding")),
		Task("Signup form", Indent(2), BlockID("signup")),
	)
}
