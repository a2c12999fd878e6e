package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Translator is the external translation capability.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// MyMemoryClient calls the MyMemory translation API (free, keyless).
type MyMemoryClient struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewMyMemoryClient() *MyMemoryClient {
	return &MyMemoryClient{
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		BaseURL:    "https://api.mymemory.translated.net",
	}
}

type myMemoryResponse struct {
	ResponseStatus int `json:"responseStatus"`
	ResponseData   struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

func (c *MyMemoryClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", sourceLang+"|"+targetLang)
	endpoint := c.BaseURL + "/get?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory: status=%d", resp.StatusCode)
	}
	var mr myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", err
	}
	if mr.ResponseStatus != 200 {
		return "", fmt.Errorf("mymemory: response status=%d", mr.ResponseStatus)
	}
	if mr.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("mymemory: empty translation")
	}
	return mr.ResponseData.TranslatedText, nil
}
