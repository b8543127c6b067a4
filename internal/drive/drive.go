// Package drive exports files to a user's Google Drive using the OAuth
// access token carried by their session. Only files created by the app
// are visible under the drive.file scope.
package drive

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// File describes an exported file.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	Size        int64  `json:"size"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

// Service wraps the Drive API for one user's access token.
type Service struct {
	files *drive.Service
}

// NewForToken builds a Drive service acting as the token's owner.
func NewForToken(ctx context.Context, accessToken string) (*Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Service{files: svc}, nil
}

// Upload writes content to the user's Drive and returns its metadata.
func (s *Service) Upload(ctx context.Context, name, mimeType string, content io.Reader) (*File, error) {
	created, err := s.files.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeType,
	}).
		Media(content).
		Fields("id", "name", "mimeType", "size", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload to drive: %w", err)
	}

	return &File{
		ID:          created.Id,
		Name:        created.Name,
		MimeType:    created.MimeType,
		Size:        created.Size,
		WebViewLink: created.WebViewLink,
	}, nil
}

// List returns the files this app created in the user's Drive.
func (s *Service) List(ctx context.Context) ([]File, error) {
	var out []File
	pageToken := ""
	for {
		call := s.files.Files.List().
			Fields("nextPageToken", "files(id, name, mimeType, size, webViewLink)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list drive files: %w", err)
		}

		for _, f := range page.Files {
			out = append(out, File{
				ID:          f.Id,
				Name:        f.Name,
				MimeType:    f.MimeType,
				Size:        f.Size,
				WebViewLink: f.WebViewLink,
			})
		}

		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// Delete removes a file from the user's Drive. Deleting an already
// deleted file is not an error.
func (s *Service) Delete(ctx context.Context, fileID string) error {
	err := s.files.Files.Delete(fileID).Context(ctx).Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 404 {
			return nil
		}
		return fmt.Errorf("failed to delete drive file: %w", err)
	}
	return nil
}
