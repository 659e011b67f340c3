// Package ipfs pins event media and metadata to IPFS through Pinata.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.pinata.cloud"

type PinataClient struct {
	jwt     string
	baseURL string
	client  *http.Client
}

func NewPinataClient(jwt string) *PinataClient {
	return &PinataClient{
		jwt:     jwt,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// UploadJSON pins a JSON document and returns its ipfs:// URI.
func (p *PinataClient) UploadJSON(ctx context.Context, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	return p.pin(req)
}

// UploadFile pins an uploaded file and returns its ipfs:// URI.
func (p *PinataClient) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileHeader.Filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	return p.pin(req)
}

func (p *PinataClient) pin(req *http.Request) (string, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading to ipfs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinata returned %s", resp.Status)
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", fmt.Errorf("decoding pinata response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", fmt.Errorf("pinata response missing hash")
	}
	return "ipfs://" + pinned.IpfsHash, nil
}
