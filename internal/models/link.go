package models

type Link struct {
	ShortKey    string `json:"short_key"`
	OriginalURL string `json:"original_url"`
	SecretToken string `json:"-"`
	Clicks      int64  `json:"clicks"`
}

type LinkStats struct {
	ShortKey string `json:"short_key"`
	Clicks   int64  `json:"clicks"`
}
