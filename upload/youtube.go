package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// credentialsFileName is the OAuth client/token blob the Python original
// stores next to config.ini (§4.5 step 1: "load credentials from the
// storage root").
const credentialsFileName = "youtube_credentials.json"

// YoutubeClient is the §6 "video platform uploader" contract:
// get_or_create_playlist(name, desc) -> id?; upload_video(...) -> video_id?.
type YoutubeClient interface {
	GetOrCreatePlaylist(ctx context.Context, name, description, privacyStatus string) (string, error)
	UploadVideo(ctx context.Context, path, title, description, privacyStatus, playlistID string) (string, error)
}

type youtubeClient struct {
	svc *youtube.Service
}

// NewYoutubeClient loads OAuth credentials from storagePath/credentialsFileName
// and constructs a youtube/v3 client. Missing credentials are reported via a
// sentinel error the caller treats as "a human operator must provide them"
// (§4.5 step 1), not a hard failure.
func NewYoutubeClient(ctx context.Context, storagePath string) (YoutubeClient, error) {
	credPath := filepath.Join(storagePath, credentialsFileName)
	data, err := os.ReadFile(credPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsMissing
		}
		return nil, fmt.Errorf("reading %s: %w", credPath, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, youtube.YoutubeUploadScope, youtube.YoutubeScope)
	if err != nil {
		return nil, fmt.Errorf("parsing youtube credentials: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("constructing youtube client: %w", err)
	}
	return &youtubeClient{svc: svc}, nil
}

// ErrCredentialsMissing signals §4.5 step 1's "credentials absent" case.
var ErrCredentialsMissing = fmt.Errorf("youtube credentials not found")

func (c *youtubeClient) GetOrCreatePlaylist(ctx context.Context, name, description, privacyStatus string) (string, error) {
	call := c.svc.Playlists.List([]string{"id", "snippet"}).Mine(true).MaxResults(50)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("listing playlists: %w", err)
	}
	for _, pl := range resp.Items {
		if pl.Snippet != nil && pl.Snippet.Title == name {
			return pl.Id, nil
		}
	}

	pl := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       name,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: privacyStatus},
	}
	created, err := c.svc.Playlists.Insert([]string{"snippet", "status"}, pl).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating playlist %q: %w", name, err)
	}
	return created.Id, nil
}

func (c *youtubeClient) UploadVideo(ctx context.Context, path, title, description, privacyStatus, playlistID string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: privacyStatus},
	}

	inserted, err := c.svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}

	if playlistID != "" {
		item := &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: inserted.Id},
			},
		}
		if _, err := c.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
			return inserted.Id, fmt.Errorf("adding %s to playlist %s: %w", inserted.Id, playlistID, err)
		}
	}
	return inserted.Id, nil
}
