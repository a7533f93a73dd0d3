package domain

import "fmt"

const shortLinkBase = "https://youtu.be/"

// RelatedVideo is one entry of a video's "related videos" panel.
type RelatedVideo struct {
	VideoID       string      `json:"videoId"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	ChannelID     string      `json:"channelId,omitempty"`
	Duration      string      `json:"duration,omitempty"`
	LengthSeconds int         `json:"lengthSeconds"`
	ViewCount     string      `json:"viewCount,omitempty"`
	PublishedTime string      `json:"publishedTime,omitempty"`
	Thumbnails    []Thumbnail `json:"thumbnails"`
	IsLive        bool        `json:"isLive"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ShortURL returns the youtu.be link for the video.
func (v RelatedVideo) ShortURL() string {
	return fmt.Sprintf("%s%s", shortLinkBase, v.VideoID)
}
