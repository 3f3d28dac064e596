// Copyright 2025 The Parley Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prompt assembles the system prompt from many optional
// sections: core instructions, tools, skills, data components,
// artifacts, and transfer/delegation policy.
//
// Assembly is deterministic template filling: an ordered list of
// (placeholder, builder) pairs over an immutable template. Each builder
// is total and side-effect-free; a builder returning empty text removes
// its section entirely, wrapper tags included.
package prompt

import (
	"regexp"
	"strings"
)

// systemPromptTemplate is the immutable skeleton. Placeholders are
// substituted in order; empty sections vanish.
const systemPromptTemplate = `{{CORE_INSTRUCTIONS}}

{{GRAPH_PROMPT}}

{{CURRENT_TIME}}

{{TOOLS}}

{{SKILLS}}

{{DATA_COMPONENTS}}

{{ARTIFACTS}}

{{TRANSFER_INSTRUCTIONS}}

{{DELEGATION_INSTRUCTIONS}}`

// sectionBuilder computes one section's text from the configuration.
// Builders never fail; a section that does not apply yields "".
type sectionBuilder struct {
	placeholder string
	build       func(cfg *Config) string
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// fill substitutes every placeholder and collapses the holes left by
// omitted sections.
func fill(template string, builders []sectionBuilder, cfg *Config) (string, map[string]string) {
	sections := make(map[string]string, len(builders))
	out := template
	for _, b := range builders {
		content := b.build(cfg)
		sections[b.placeholder] = content
		out = strings.ReplaceAll(out, "{{"+b.placeholder+"}}", content)
	}
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), sections
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
