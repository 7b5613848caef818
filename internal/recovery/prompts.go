package recovery

const extractionSystemPrompt = `You are an expert at extracting conversation content from HTML pages of AI chat platforms.

Your task is to:
1. Parse the HTML content and identify the conversation between human and AI
2. Extract the conversation in a clean, readable format
3. Preserve the structure showing who said what (Human/User vs AI/Assistant)
4. Remove navigation, ads, and other non-conversation content
5. Format the output as a clear conversation transcript

Common platforms and their patterns:
- ChatGPT: Look for message containers, user/assistant roles
- Claude: Look for conversation threads, human/assistant exchanges
- Perplexity: Look for query/response pairs
- Other AI platforms: Look for similar conversation patterns

IMPORTANT: Be honest about extraction quality:
- "excellent": Full conversation extracted with clear speaker labels
- "good": Most conversation extracted, minor formatting issues
- "poor": Partial extraction, missing context or unclear speakers
- "failed": Unable to identify conversation content

Return the conversation as clean text with clear speaker labels.`

const extractionPromptTemplate = `Extract the conversation content from this HTML page from URL: %s

HTML Content (first %d chars):
%s%s

Please extract the conversation between the human user and the AI assistant, formatting it clearly with speaker labels. Be honest about the extraction quality.`

const truncationNote = "\n\n[Content truncated - full HTML was longer]"

const (
	bannerPoor = "[WARNING: Extraction quality was poor - some content may be missing or incorrectly formatted]\n\n"
	bannerGood = "[INFO: Good extraction quality - minor formatting issues possible]\n\n"
)
