// Package config loads pipeline files and turns them into runnable pipelines.
//
//	          +----------------+
//	          | pipeline file  |
//	          +-------+--------+
//	                  |
//	    +-------------+-------------+
//	    |             |             |
//	+---+---+     +---+---+     +---+---+
//	| YAML  |     | JSON  |     |  HCL  |
//	+---+---+     +---+---+     +---+---+
//	    |             |             |
//	    +-------------+-------------+
//	                  |
//	            +-----+-----+
//	            |  Config   | -- Validate --> Pipeline()
//	            +-----------+
//
// 🎯 Purpose:
// - Picks a parser by file extension
// - Validates every step before anything runs
// - Builds a pipeline.Pipeline with compiled patterns
//
// 📝 Schema (YAML):
//
//	name: store-migration
//	files: ["app/**/page.tsx"]
//	exclude: ["**/*.test.tsx"]
//	strict: false
//	warn_ambiguous: true
//	skip_if:
//	  literal: useStore
//	steps:
//	  - name: add-import
//	    kind: replace_literal
//	    literal: 'import { X } from "x";'
//	    with: |-
//	      import { X } from "x";
//	      import { useStore } from "@/lib/store";
//	  - name: drop-banner
//	    kind: extract
//	    block: {start: "{/* banner */}", end: "</div>", eat_newline: true}
//	  - name: header
//	    kind: replace_region
//	    regex: '<header>.*?</header>'
//	    dot_all: true
//	    with: "<PageHeader />"
//	    match: unique
//
// HCL uses labelled step blocks and can read env.NAME:
//
//	step "add-import" {
//	  kind    = "replace_literal"
//	  literal = "import a;"
//	  with    = format("import a;\nimport b from %q;", env.STORE_PATH)
//	}
//
// A step holds exactly one of literal, regex or block. Kinds are
// replace_literal, extract, replace_region and replace_all; match is first,
// last or unique.
package config
