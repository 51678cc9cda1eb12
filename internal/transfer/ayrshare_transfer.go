package transfer

type AyrshareFacebookOptions struct {
	PageID string `json:"pageId,omitempty"`
}

type AyrshareInstagramOptions struct {
	ImageURL string `json:"imageUrl,omitempty"`
}

type AyrshareLinkedInOptions struct {
	CommentOK *bool `json:"commentOk,omitempty"`
}

type AyrsharePostRequest struct {
	Post             string                    `json:"post"`
	Platforms        []string                  `json:"platforms"`
	MediaURLs        []string                  `json:"mediaUrls,omitempty"`
	ScheduleDate     string                    `json:"scheduleDate,omitempty"`
	ShortenLinks     bool                      `json:"shortenLinks,omitempty"`
	FacebookOptions  *AyrshareFacebookOptions  `json:"facebookOptions,omitempty"`
	LinkedInOptions  *AyrshareLinkedInOptions  `json:"linkedInOptions,omitempty"`
	InstagramOptions *AyrshareInstagramOptions `json:"instagramOptions,omitempty"`
}

type AyrsharePostResponse struct {
	Status   string            `json:"status"`
	ID       string            `json:"id"`
	PostIDs  map[string]string `json:"postIds"`
	PostURLs map[string]string `json:"postUrls"`
	Errors   map[string]string `json:"errors,omitempty"`
}

type AyrshareProfile struct {
	Platform  string `json:"platform"`
	ProfileID string `json:"profileId"`
	Username  string `json:"username"`
	Verified  bool   `json:"verified"`
	Type      string `json:"type"`
}

type AyrshareProfilesResponse struct {
	Profiles []AyrshareProfile `json:"profiles"`
}

type AyrshareUploadResponse struct {
	URL string `json:"url"`
}

type AyrshareErrorResponse struct {
	Message string `json:"message"`
}
