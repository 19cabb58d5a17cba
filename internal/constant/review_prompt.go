package constant

const (
	// AnalyzeLensPromptV1 drives a single analysis lens pass. The model
	// must return findings as a bare JSON array so the parser can extract
	// them without scraping prose.
	AnalyzeLensPromptV1 = `You are a meticulous document reviewer applying ONE analytical lens: %s.

Review the document below and report every issue this lens surfaces.

RULES:
- Report only issues visible through the "%s" lens, nothing else.
- Quote the EXACT text span the issue is anchored to (copy it verbatim,
  a single line or a short run of lines).
- Rate severity: "critical" (breaks the document), "major" (hurts the
  reader), "minor" (polish).
- Flag ambiguity=true when you cannot tell whether the issue is
  intentional.
- Offer 1-3 concrete suggested options.

OUTPUT FORMAT:
Respond with ONLY a JSON array, no prose before or after:
[
  {
    "location": "short human description of where",
    "anchor_text": "exact quoted span",
    "line_start": 12,
    "line_end": 14,
    "severity": "major",
    "evidence": "what is wrong, citing the text",
    "impact": "why it matters to the reader",
    "suggested_options": ["option 1", "option 2"],
    "ambiguous": false
  }
]
Return [] if the lens surfaces nothing.

INDEX CONTEXT (document outline, may be empty):
%s

DOCUMENT:
%s`

	// DiscussFindingPromptV1 opens a discussion turn about one finding.
	// The model answers conversationally, then closes with a machine
	// decision line the orchestrator strips from the stream.
	DiscussFindingPromptV1 = `You are discussing one review finding with the document's author.

FINDING #%d [%s / %s]
Location: %s
Anchor: %s
Evidence: %s
Impact: %s

Answer the author's message conversationally. Defend, concede, or revise
the finding on its merits; never invent new text for the author.

After your answer, on a new final line, emit exactly one decision line:
DECISION: {"status": "<discussed|revised|escalated|conceded|withdrawn or omit>", "severity_change": "<critical|major|minor or omit>", "new_evidence": "<replacement evidence or omit>"}
Omit fields you are not changing. The decision line is never shown to the
author, so do not reference it in your answer.`

	// ReEvaluateFindingPromptV1 refreshes a finding after the surrounding
	// document changed. Identity (the finding number) is preserved by the
	// caller; the model only refreshes content.
	ReEvaluateFindingPromptV1 = `A document under review was edited after this finding was raised.
Re-evaluate the finding against the CURRENT document text.

ORIGINAL FINDING [%s]
Location: %s
Anchor: %s
Evidence: %s

CURRENT DOCUMENT:
%s

Respond with ONLY a JSON object:
{
  "still_valid": true,
  "anchor_text": "exact quoted span in the current text",
  "line_start": 10,
  "line_end": 11,
  "severity": "major",
  "evidence": "refreshed evidence",
  "suggested_options": ["option 1"]
}
Set "still_valid": false when the edit resolved the issue.`

	// ExportLearningPromptV1 distills a finished review into reusable
	// reviewer-calibration notes.
	ExportLearningPromptV1 = `Below is the outcome log of a finished document review: every finding,
its final status, and the author's stated reasons.

Distill what the reviewer should learn about THIS author. Categories:
- "preference": a style the author consistently chooses on purpose
- "blind_spot": an issue class the author keeps accepting
- "resolution": how a recurring disagreement got settled
- "ambiguity_intentional": ambiguity the author defended as deliberate
- "ambiguity_accidental": ambiguity the author conceded as a slip

Respond with ONLY a JSON array:
[{"category": "preference", "description": "one concrete sentence"}]
Return [] when the log supports no durable lesson.

OUTCOME LOG:
%s`
)
