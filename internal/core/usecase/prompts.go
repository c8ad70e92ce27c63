package usecase

import (
	"fmt"
	"strings"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

const caseSummaryHeader = "CASE SUMMARY"

func buildStrategyPrompt(profile domain.ExpertProfile, strategy domain.Strategy, motionType string) string {
	var direction string
	if strategy == domain.StrategyChallenge {
		direction = fmt.Sprintf(`analyze this expert witness for a %s to EXCLUDE their testimony.

Develop a comprehensive challenge strategy including:
1. Primary vulnerabilities to exploit (be specific about which Daubert factors)
2. Methodological weaknesses based on the actual documents found
3. Research priorities for the legal and scientific research tracks
4. Key arguments to develop (numbered list)
5. Anticipated defense responses and counter-arguments

Focus on actionable insights that will lead to exclusion.`, motionType)
	} else {
		direction = fmt.Sprintf(`analyze this expert witness to SUPPORT their testimony and defend against a %s.

Develop a comprehensive support strategy including:
1. Key strengths that satisfy each Daubert factor
2. How their methodologies align with accepted standards
3. Research priorities to bolster credibility
4. Preemptive responses to likely challenges
5. Distinguishing qualifications and experience

Build a solid foundation for admissibility.`, motionType)
	}

	return fmt.Sprintf(`As the lead attorney and senior tort strategist, %s

Target Expert: %s
Documents Found: %d
Document Types: %s
Known Credentials:
%s
Identified Methodologies:
%s
Key Findings from Documents:
%s
Relevant Document Excerpts:
%s

ALSO GENERATE A %s for the research agents including:
- Key facts of the case
- Critical issues to investigate
- Specific research priorities
Start that section with the header "%s".`,
		direction,
		profile.ExpertName,
		profile.DocumentsFound,
		joinOrNone(profile.DocumentTypes),
		bulletList(profile.Credentials),
		bulletList(profile.Methodologies),
		bulletList(clampList(profile.KeyFindings, 5)),
		excerptBlock(profile.RelevantExcerpts),
		caseSummaryHeader,
		caseSummaryHeader,
	)
}

// splitStrategyResponse separates the strategy narrative from the case
// summary section the prompt asks for. A response without the header keeps
// everything in the narrative.
func splitStrategyResponse(response string) (narrative, caseSummary string) {
	upper := strings.ToUpper(response)
	idx := strings.Index(upper, caseSummaryHeader)
	if idx < 0 {
		return strings.TrimSpace(response), ""
	}
	narrative = strings.TrimSpace(response[:idx])
	caseSummary = strings.TrimSpace(response[idx+len(caseSummaryHeader):])
	caseSummary = strings.TrimSpace(strings.TrimLeft(caseSummary, ":"))
	return narrative, caseSummary
}

func buildDraftPrompt(analysis domain.CaseAnalysis, research domain.ResearchBundle) string {
	var framing, argument string
	if analysis.Strategy == domain.StrategyChallenge {
		framing = fmt.Sprintf("draft a %s to EXCLUDE expert %s", analysis.MotionType, analysis.Profile.ExpertName)
		argument = `IV. ARGUMENT
A. Expert's Methods Are Not Reliable
B. Expert's Methods Are Not Relevant
C. Expert's Testimony Would Not Assist the Trier of Fact`
	} else {
		framing = fmt.Sprintf("draft a Response to %s SUPPORTING expert %s", analysis.MotionType, analysis.Profile.ExpertName)
		argument = `IV. ARGUMENT
A. Expert Is Highly Qualified
B. Expert's Methods Are Reliable
C. Expert's Testimony Is Relevant and Helpful`
	}

	return fmt.Sprintf(`As a forensic legal writer, %s.

CASE STRATEGY:
%s

LEGAL RESEARCH:
%s

SCIENTIFIC RESEARCH:
%s

Structure the motion as follows:

I. INTRODUCTION
II. STATEMENT OF FACTS
III. LEGAL STANDARD
%s
V. CONCLUSION

Write in formal legal style with proper citations.`,
		framing,
		analysis.Narrative,
		truncateRunes(research.Legal.Findings, 2000),
		truncateRunes(research.Scientific.Findings, 2000),
		argument,
	)
}

func buildRevisePrompt(draft string, research domain.ResearchBundle, strategy domain.Strategy) string {
	var instructions string
	if strategy == domain.StrategyChallenge {
		instructions = `1. Open with the expert's most damaging weakness
2. Frame the motion as protecting the court from unreliable science
3. Pre-empt the strongest defense arguments and answer them
4. Structure arguments so each builds on the last
5. End with a conclusion that makes exclusion the only responsible choice`
	} else {
		instructions = `1. Open by establishing the expert's credibility and authority
2. Reframe each anticipated attack as proof of the expert's thoroughness
3. Show how the challengers' criticisms actually support admissibility
4. Layer the defenses so no single point carries the motion alone
5. End with a conclusion that makes denial of the challenge inevitable`
	}

	return fmt.Sprintf(`As the senior tort strategist, strengthen this brief along the chosen strategy without altering any factual claim.

INITIAL BRIEF:
%s

SUPPORTING RESEARCH:
Legal: %s
Scientific: %s

REVISION INSTRUCTIONS:
%s

Return the complete revised brief.`,
		truncateRunes(draft, 4000),
		truncateRunes(research.Legal.Findings, 500),
		truncateRunes(research.Scientific.Findings, 500),
		instructions,
	)
}

func buildFactCheckPrompt(brief string, profile domain.ExpertProfile) string {
	return fmt.Sprintf(`Perform a final fact-check and polish on this legal brief.

BRIEF TO REVIEW:
%s

VERIFY AGAINST ORIGINAL DATA:
Expert Name: %s
Credentials Found: %s
Methodologies: %s

Checklist:
1. Expert's name spelled consistently and correctly
2. All case citations properly formatted
3. Dates, court names and judge names consistent
4. No factual contradictions with the data above
5. Remove any remaining placeholders or notes

Return the fact-checked and polished final brief, ready for filing.`,
		brief,
		profile.ExpertName,
		joinOrNone(profile.Credentials),
		joinOrNone(profile.Methodologies),
	)
}

func buildRecommendationsPrompt(analysis domain.CaseAnalysis, research domain.ResearchBundle, finalBrief string) string {
	return fmt.Sprintf(`As the lead attorney, generate strategic recommendations based on the completed analysis.

Case Strategy: %s
Motion Type: %s

Legal Research: %s
Scientific Research: %s
Brief Opening: %s

Cover:
1. Pre-trial strategy (deposition priorities, discovery requests)
2. Motion practice (timing, supporting motions, anticipated opposition)
3. Trial strategy if the motion fails
4. Settlement considerations
5. Alternative approaches

Be specific, practical and actionable.`,
		analysis.Strategy,
		analysis.MotionType,
		truncateRunes(research.Legal.Findings, 1000),
		truncateRunes(research.Scientific.Findings, 1000),
		truncateRunes(finalBrief, 1000),
	)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func bulletList(values []string) string {
	if len(values) == 0 {
		return "- (none)"
	}
	lines := make([]string, 0, len(values))
	for _, v := range values {
		lines = append(lines, "- "+v)
	}
	return strings.Join(lines, "\n")
}

func clampList(values []string, limit int) []string {
	if len(values) <= limit {
		return values
	}
	return values[:limit]
}

func excerptBlock(excerpts []domain.Excerpt) string {
	if len(excerpts) == 0 {
		return "(no excerpts available)"
	}
	lines := make([]string, 0, len(excerpts))
	for _, e := range excerpts {
		lines = append(lines, fmt.Sprintf("[%s] %s", e.Source, e.Text))
	}
	return strings.Join(lines, "\n")
}
