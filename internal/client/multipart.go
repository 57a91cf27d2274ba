// ABOUTME: Multipart request bodies for posts and admins
// ABOUTME: Sends a JSON part plus an optional file part

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
)

// Upload is a file sent in the "file" part of a multipart request
type Upload struct {
	Filename string
	Content  io.Reader
}

// contentType guesses the MIME type from the file extension
func (u *Upload) contentType() string {
	if ct := mime.TypeByExtension(filepath.Ext(u.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// sendMultipart sends in as a JSON part named field, with upload as the
// optional "file" part, and decodes the answer into out.
func (c *Client) sendMultipart(ctx context.Context, method, path, field string, in any, upload *Upload, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, field+".json"))
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	if upload != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(upload.Filename)))
		header.Set("Content-Type", upload.contentType())
		fp, err := mw.CreatePart(header)
		if err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := io.Copy(fp, upload.Content); err != nil {
			return fmt.Errorf("failed to read upload %s: %w", upload.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := c.NewRequest(ctx, method, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.doJSON(ctx, req, out)
}
