package models

// Wire types for the Azure Text Analytics v3.1 REST API.

type (
	AzureBatchRequest struct {
		Documents []AzureDocument `json:"documents"`
	}
	AzureDocument struct {
		ID          string `json:"id"`
		Text        string `json:"text"`
		Language    string `json:"language,omitempty"`
		CountryHint string `json:"countryHint,omitempty"`
	}
)

type AzureErrorResponse struct {
	Error AzureError `json:"error"`
}

type AzureError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	InnerError *AzureError `json:"innererror,omitempty"`
}

type AzureDocumentError struct {
	ID    string     `json:"id"`
	Error AzureError `json:"error"`
}

type AzureWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AzureBatchEnvelope holds the fields every batch response shares.
type AzureBatchEnvelope struct {
	Errors       []AzureDocumentError `json:"errors"`
	ModelVersion string               `json:"modelVersion"`
}

type AzureConfidenceScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type (
	AzureSentimentResponse struct {
		AzureBatchEnvelope
		Documents []AzureSentimentDocument `json:"documents"`
	}
	AzureSentimentDocument struct {
		ID               string                `json:"id"`
		Sentiment        string                `json:"sentiment"`
		ConfidenceScores AzureConfidenceScores `json:"confidenceScores"`
		Sentences        []AzureSentence       `json:"sentences"`
		Warnings         []AzureWarning        `json:"warnings"`
	}
	AzureSentence struct {
		Text             string                `json:"text"`
		Sentiment        string                `json:"sentiment"`
		ConfidenceScores AzureConfidenceScores `json:"confidenceScores"`
		Offset           int                   `json:"offset"`
		Length           int                   `json:"length"`
		Targets          []AzureTarget         `json:"targets"`
		Assessments      []AzureAssessment     `json:"assessments"`
	}
	AzureTarget struct {
		Text             string                `json:"text"`
		Sentiment        string                `json:"sentiment"`
		ConfidenceScores AzureConfidenceScores `json:"confidenceScores"`
		Offset           int                   `json:"offset"`
		Length           int                   `json:"length"`
		Relations        []AzureRelation       `json:"relations"`
	}
	AzureRelation struct {
		RelationType string `json:"relationType"`
		Ref          string `json:"ref"`
	}
	AzureAssessment struct {
		Text             string                `json:"text"`
		Sentiment        string                `json:"sentiment"`
		ConfidenceScores AzureConfidenceScores `json:"confidenceScores"`
		Offset           int                   `json:"offset"`
		Length           int                   `json:"length"`
		IsNegated        bool                  `json:"isNegated"`
	}
)

type (
	AzureEntitiesResponse struct {
		AzureBatchEnvelope
		Documents []AzureEntitiesDocument `json:"documents"`
	}
	AzureEntitiesDocument struct {
		ID       string         `json:"id"`
		Entities []AzureEntity  `json:"entities"`
		Warnings []AzureWarning `json:"warnings"`
	}
	AzureEntity struct {
		Text            string  `json:"text"`
		Category        string  `json:"category"`
		Subcategory     string  `json:"subcategory,omitempty"`
		Offset          int     `json:"offset"`
		Length          int     `json:"length"`
		ConfidenceScore float64 `json:"confidenceScore"`
	}
)

type (
	AzureLinkedEntitiesResponse struct {
		AzureBatchEnvelope
		Documents []AzureLinkedEntitiesDocument `json:"documents"`
	}
	AzureLinkedEntitiesDocument struct {
		ID       string              `json:"id"`
		Entities []AzureLinkedEntity `json:"entities"`
		Warnings []AzureWarning      `json:"warnings"`
	}
	AzureLinkedEntity struct {
		Name       string       `json:"name"`
		Matches    []AzureMatch `json:"matches"`
		Language   string       `json:"language"`
		ID         string       `json:"id"`
		URL        string       `json:"url"`
		DataSource string       `json:"dataSource"`
	}
	AzureMatch struct {
		Text            string  `json:"text"`
		Offset          int     `json:"offset"`
		Length          int     `json:"length"`
		ConfidenceScore float64 `json:"confidenceScore"`
	}
)

type (
	AzureLanguageResponse struct {
		AzureBatchEnvelope
		Documents []AzureLanguageDocument `json:"documents"`
	}
	AzureLanguageDocument struct {
		ID               string                `json:"id"`
		DetectedLanguage AzureDetectedLanguage `json:"detectedLanguage"`
		Warnings         []AzureWarning        `json:"warnings"`
	}
	AzureDetectedLanguage struct {
		Name            string  `json:"name"`
		ISO6391Name     string  `json:"iso6391Name"`
		ConfidenceScore float64 `json:"confidenceScore"`
	}
)

type (
	AzureKeyPhrasesResponse struct {
		AzureBatchEnvelope
		Documents []AzureKeyPhrasesDocument `json:"documents"`
	}
	AzureKeyPhrasesDocument struct {
		ID         string         `json:"id"`
		KeyPhrases []string       `json:"keyPhrases"`
		Warnings   []AzureWarning `json:"warnings"`
	}
)
