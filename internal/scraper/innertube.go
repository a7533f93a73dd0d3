package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ytrelated/internal/domain"
)

// YouTube InnerTube WEB client, /next endpoint.

const (
	nextPath         = "/youtubei/v1/next"
	webClientName    = "WEB"
	webClientNameID  = "1"
	webClientVersion = "2.20250222.10.00"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	lockupVideoContentType = "LOCKUP_CONTENT_TYPE_VIDEO"
	liveBadgeStyle         = "BADGE_STYLE_TYPE_LIVE_NOW"
)

type nextRequest struct {
	VideoID        string      `json:"videoId"`
	Context        nextContext `json:"context"`
	RacyCheckOk    bool        `json:"racyCheckOk"`
	ContentCheckOk bool        `json:"contentCheckOk"`
}

type nextContext struct {
	Client struct {
		ClientName    string `json:"clientName"`
		ClientVersion string `json:"clientVersion"`
		Hl            string `json:"hl"`
		Gl            string `json:"gl"`
	} `json:"client"`
	User struct {
		LockedSafetyMode bool `json:"lockedSafetyMode"`
	} `json:"user"`
	Request struct {
		UseSsl bool `json:"useSsl"`
	} `json:"request"`
}

func newNextRequest(videoID string) nextRequest {
	req := nextRequest{
		VideoID:        videoID,
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}
	req.Context.Client.ClientName = webClientName
	req.Context.Client.ClientVersion = webClientVersion
	req.Context.Client.Hl = "en"
	req.Context.Client.Gl = "US"
	req.Context.Request.UseSsl = true
	return req
}

type nextResponse struct {
	Contents struct {
		TwoColumnWatchNextResults struct {
			SecondaryResults struct {
				SecondaryResults struct {
					Results []secondaryItem `json:"results"`
				} `json:"secondaryResults"`
			} `json:"secondaryResults"`
		} `json:"twoColumnWatchNextResults"`
	} `json:"contents"`
}

type secondaryItem struct {
	CompactVideoRenderer *compactVideoRenderer `json:"compactVideoRenderer"`
	LockupViewModel      *lockupViewModel      `json:"lockupViewModel"`
	ItemSectionRenderer  *struct {
		Contents []secondaryItem `json:"contents"`
	} `json:"itemSectionRenderer"`
}

type textRun struct {
	Text               string `json:"text"`
	NavigationEndpoint struct {
		BrowseEndpoint struct {
			BrowseID string `json:"browseId"`
		} `json:"browseEndpoint"`
	} `json:"navigationEndpoint"`
}

type formattedText struct {
	SimpleText string    `json:"simpleText"`
	Runs       []textRun `json:"runs"`
}

func (t formattedText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, run := range t.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

func firstBrowseID(runs []textRun) string {
	for _, run := range runs {
		if id := run.NavigationEndpoint.BrowseEndpoint.BrowseID; id != "" {
			return id
		}
	}
	return ""
}

type compactVideoRenderer struct {
	VideoID           string        `json:"videoId"`
	Title             formattedText `json:"title"`
	LongBylineText    formattedText `json:"longBylineText"`
	ShortBylineText   formattedText `json:"shortBylineText"`
	LengthText        formattedText `json:"lengthText"`
	ViewCountText     formattedText `json:"viewCountText"`
	PublishedTimeText formattedText `json:"publishedTimeText"`
	Thumbnail         struct {
		Thumbnails []domain.Thumbnail `json:"thumbnails"`
	} `json:"thumbnail"`
	Badges []struct {
		MetadataBadgeRenderer struct {
			Style string `json:"style"`
		} `json:"metadataBadgeRenderer"`
	} `json:"badges"`
}

func (r *compactVideoRenderer) toRelatedVideo() domain.RelatedVideo {
	author := r.LongBylineText.String()
	if author == "" {
		author = r.ShortBylineText.String()
	}

	channelID := firstBrowseID(r.LongBylineText.Runs)
	if channelID == "" {
		channelID = firstBrowseID(r.ShortBylineText.Runs)
	}

	isLive := false
	for _, badge := range r.Badges {
		if badge.MetadataBadgeRenderer.Style == liveBadgeStyle {
			isLive = true
			break
		}
	}

	duration := r.LengthText.String()
	return domain.RelatedVideo{
		VideoID:       r.VideoID,
		Title:         r.Title.String(),
		Author:        author,
		ChannelID:     channelID,
		Duration:      duration,
		LengthSeconds: parseClockDuration(duration),
		ViewCount:     r.ViewCountText.String(),
		PublishedTime: r.PublishedTimeText.String(),
		Thumbnails:    nonNilThumbnails(r.Thumbnail.Thumbnails),
		IsLive:        isLive,
	}
}

type lockupText struct {
	Content string `json:"content"`
}

type lockupViewModel struct {
	ContentID    string `json:"contentId"`
	ContentType  string `json:"contentType"`
	ContentImage struct {
		ThumbnailViewModel struct {
			Image struct {
				Sources []domain.Thumbnail `json:"sources"`
			} `json:"image"`
			Overlays []struct {
				ThumbnailOverlayBadgeViewModel struct {
					ThumbnailBadges []struct {
						ThumbnailBadgeViewModel struct {
							Text       string `json:"text"`
							BadgeStyle string `json:"badgeStyle"`
						} `json:"thumbnailBadgeViewModel"`
					} `json:"thumbnailBadges"`
				} `json:"thumbnailOverlayBadgeViewModel"`
			} `json:"overlays"`
		} `json:"thumbnailViewModel"`
	} `json:"contentImage"`
	Metadata struct {
		LockupMetadataViewModel struct {
			Title    lockupText `json:"title"`
			Metadata struct {
				ContentMetadataViewModel struct {
					MetadataRows []struct {
						MetadataParts []struct {
							Text lockupText `json:"text"`
						} `json:"metadataParts"`
					} `json:"metadataRows"`
				} `json:"contentMetadataViewModel"`
			} `json:"metadata"`
		} `json:"lockupMetadataViewModel"`
	} `json:"metadata"`
}

func (m *lockupViewModel) toRelatedVideo() domain.RelatedVideo {
	meta := m.Metadata.LockupMetadataViewModel
	rows := meta.Metadata.ContentMetadataViewModel.MetadataRows

	// Rows are [author] then [views, published time].
	part := func(row, idx int) string {
		if row >= len(rows) || idx >= len(rows[row].MetadataParts) {
			return ""
		}
		return rows[row].MetadataParts[idx].Text.Content
	}

	video := domain.RelatedVideo{
		VideoID:       m.ContentID,
		Title:         meta.Title.Content,
		Author:        part(0, 0),
		ViewCount:     part(1, 0),
		PublishedTime: part(1, 1),
		Thumbnails:    nonNilThumbnails(m.ContentImage.ThumbnailViewModel.Image.Sources),
	}

	for _, overlay := range m.ContentImage.ThumbnailViewModel.Overlays {
		for _, badge := range overlay.ThumbnailOverlayBadgeViewModel.ThumbnailBadges {
			vm := badge.ThumbnailBadgeViewModel
			if strings.Contains(vm.BadgeStyle, "LIVE") || strings.EqualFold(vm.Text, "live") {
				video.IsLive = true
				continue
			}
			if seconds := parseClockDuration(vm.Text); seconds > 0 {
				video.Duration = vm.Text
				video.LengthSeconds = seconds
			}
		}
	}
	return video
}

func parseRelatedVideos(payload []byte) ([]domain.RelatedVideo, error) {
	var resp nextResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode next response: %w", err)
	}

	items := resp.Contents.TwoColumnWatchNextResults.SecondaryResults.SecondaryResults.Results
	var videos []domain.RelatedVideo
	collectRelated(items, &videos)
	return videos, nil
}

func collectRelated(items []secondaryItem, out *[]domain.RelatedVideo) {
	for _, item := range items {
		switch {
		case item.CompactVideoRenderer != nil:
			if item.CompactVideoRenderer.VideoID != "" {
				*out = append(*out, item.CompactVideoRenderer.toRelatedVideo())
			}
		case item.LockupViewModel != nil:
			lockup := item.LockupViewModel
			if lockup.ContentType == lockupVideoContentType && lockup.ContentID != "" {
				*out = append(*out, lockup.toRelatedVideo())
			}
		case item.ItemSectionRenderer != nil:
			collectRelated(item.ItemSectionRenderer.Contents, out)
		}
	}
}

// parseClockDuration converts "4:13" or "1:02:03" to seconds; anything else is 0.
func parseClockDuration(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(text, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func nonNilThumbnails(thumbs []domain.Thumbnail) []domain.Thumbnail {
	if thumbs == nil {
		return []domain.Thumbnail{}
	}
	return thumbs
}
