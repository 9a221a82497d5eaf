package clients

const (
	USER_AGENT = "textflow-client/1.0 (+https://github.com/spacesedan/textflow)"

	AZURE_API_VERSION    = "v3.1"
	AZURE_KEY_HEADER     = "Ocp-Apim-Subscription-Key"
	AZURE_STRING_INDEXES = "UnicodeCodePoint"

	BACKEND_AZURE  = "azure"
	BACKEND_GOOGLE = "google"
	BACKEND_LOCAL  = "local"
)
