package grsai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"urbangen/internal/domain"
)

func TestGenerateRequiresCredential(t *testing.T) {
	c := NewClient(Options{})

	_, err := c.Generate(context.Background(), GenerationRequest{
		Prompt: "a tower",
		Model:  domain.ModelFast,
	}, nil)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestGenerateModelSizeCoupling(t *testing.T) {
	cases := []struct {
		name     string
		model    domain.Model
		size     domain.ImageSize
		wantSize string
	}{
		{"fast never sends size", domain.ModelFast, domain.ImageSize4K, ""},
		{"pro sends requested size", domain.ModelPro, domain.ImageSize2K, "2K"},
		{"pro-vt sends requested size", domain.ModelProVT, domain.ImageSize1K, "1K"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var captured []byte
			transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
				if req.Method == http.MethodPost {
					captured, _ = io.ReadAll(req.Body)
					req.Body.Close()
					return jsonResponse(http.StatusOK, `{"code":0,"data":{"image":"aW1n"}}`), nil
				}
				return nil, errors.New("unexpected request")
			})
			c := newTestClient(t, transport)

			_, err := c.Generate(context.Background(), GenerationRequest{
				Prompt:      "city block",
				Model:       tc.model,
				AspectRatio: "16:9",
				ImageSize:   tc.size,
			}, nil)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}

			var payload map[string]any
			if err := json.Unmarshal(captured, &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			size, present := payload["imageSize"]
			if tc.wantSize == "" {
				if present {
					t.Fatalf("imageSize should be omitted, got %v", size)
				}
			} else if size != tc.wantSize {
				t.Fatalf("imageSize = %v, want %s", size, tc.wantSize)
			}
			if payload["model"] != string(tc.model) {
				t.Fatalf("model = %v, want %s", payload["model"], tc.model)
			}
			if payload["aspectRatio"] != "16:9" {
				t.Fatalf("aspectRatio = %v", payload["aspectRatio"])
			}
			if _, ok := payload["shutProgress"]; !ok {
				t.Fatalf("shutProgress missing from payload")
			}
		})
	}
}

func TestGenerateIncludesReferenceURLs(t *testing.T) {
	var captured []byte
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured, _ = io.ReadAll(req.Body)
		req.Body.Close()
		return jsonResponse(http.StatusOK, `{"code":0,"data":{"image":"aW1n"}}`), nil
	})
	c := newTestClient(t, transport)

	refs := []string{"data:image/png;base64,AAAA", "https://cdn.example.com/ref.png"}
	_, err := c.Generate(context.Background(), GenerationRequest{
		Prompt:          "plaza",
		Model:           domain.ModelFast,
		AspectRatio:     "1:1",
		ReferenceImages: refs,
	}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var payload struct {
		URLs []string `json:"urls"`
	}
	if err := json.Unmarshal(captured, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.URLs) != 2 || payload.URLs[0] != refs[0] || payload.URLs[1] != refs[1] {
		t.Fatalf("urls = %v, want %v", payload.URLs, refs)
	}
}

func TestGenerateRejectsTooManyReferences(t *testing.T) {
	c := newTestClient(t, nil)

	refs := make([]string, domain.MaxReferenceImages+1)
	for i := range refs {
		refs[i] = "https://cdn.example.com/r.png"
	}
	_, err := c.Generate(context.Background(), GenerationRequest{
		Prompt:          "plaza",
		Model:           domain.ModelFast,
		ReferenceImages: refs,
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "reference images") {
		t.Fatalf("err = %v, want reference image cap error", err)
	}
}

func TestGenerateDispatchesToStream(t *testing.T) {
	sse := "data: {\"progress\":30}\n\n" +
		"data: {\"status\":\"succeeded\",\"results\":[{\"url\":\"/img/out.png\"}]}\n\n"
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodGet {
			return binaryResponse("image/png", []byte{9, 9, 9}), nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       io.NopCloser(strings.NewReader(sse)),
		}, nil
	})
	c := newTestClient(t, transport)

	var seen []int
	artifact, err := c.Generate(context.Background(), GenerationRequest{
		Prompt:      "garden",
		Model:       domain.ModelPro,
		AspectRatio: "4:3",
		ImageSize:   domain.ImageSize1K,
	}, func(p int) { seen = append(seen, p) })
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(seen) != 1 || seen[0] != 30 {
		t.Fatalf("progress = %v, want [30]", seen)
	}
	if !strings.HasPrefix(artifact.ImageData, "data:image/png;base64,") {
		t.Fatalf("image data prefix wrong")
	}
}

func TestGenerateMapsErrorStatus(t *testing.T) {
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity, `{"message":"prompt rejected"}`), nil
	})
	c := newTestClient(t, transport)

	_, err := c.Generate(context.Background(), GenerationRequest{
		Prompt: "x",
		Model:  domain.ModelFast,
	}, nil)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want GenerationError", err)
	}
	if genErr.Reason != "prompt rejected" {
		t.Fatalf("reason = %q", genErr.Reason)
	}
}
