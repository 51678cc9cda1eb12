package transfer

import "github.com/maheshrc27/crosspost/internal/models"

// GraphErrorResponse is the error envelope shared by the Facebook and
// Instagram Graph APIs.
type GraphErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}

type GraphIDResponse struct {
	ID string `json:"id"`
}

type FacebookFeedPost struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

type FacebookPagesResponse struct {
	Data []models.FacebookPage `json:"data"`
}
