// Package prompt assembles the input contract of the LLM analysis step.
//
// A Prompt has a system message, rendered from embedded templates for a
// company or all-companies scope and a topic, and a DATA payload holding
// the requested sector(s) in sector-document form. Every unknown metric is
// serialized as null, which the system message defines as "cannot be
// derived". The model call itself sits behind the Analyzer interface.
package prompt
