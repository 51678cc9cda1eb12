package transfer

import "encoding/json"

type InstagramTokenResponse struct {
	AccessToken string      `json:"access_token"`
	UserID      json.Number `json:"user_id"`
}

type InstagramUserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type InstagramContainerRequest struct {
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption"`
	AccessToken string `json:"access_token"`
}

type InstagramPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}
