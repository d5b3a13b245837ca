package youtube

// searchResponse represents the YouTube Data API search response structure.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID      itemID  `json:"id"`
	Snippet snippet `json:"snippet"`
}

type itemID struct {
	ChannelID string `json:"channelId"`
}

type snippet struct {
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	CustomURL    string `json:"customUrl"`
}
