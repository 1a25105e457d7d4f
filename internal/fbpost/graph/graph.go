package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacktop/fbpost/internal/config"
	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/blacktop/fbpost/internal/logutil"
	fb "github.com/huandu/facebook/v2"
)

const (
	providerName   = "api"
	requestTimeout = 60 * time.Second
)

// session is the subset of *fb.Session the client calls.
type session interface {
	Get(path string, params fb.Params) (fb.Result, error)
	Post(path string, params fb.Params) (fb.Result, error)
}

// PageInfo describes the page the client publishes to.
type PageInfo struct {
	ID             string `facebook:"id"`
	Name           string `facebook:"name"`
	FanCount       int64  `facebook:"fan_count"`
	FollowersCount int64  `facebook:"followers_count"`
}

// Client publishes to a Facebook page through the Graph API.
type Client struct {
	pageID string
	open   func(ctx context.Context) session
}

var _ fbpost.Poster = (*Client)(nil)

// Option customizes a Client.
type Option func(*fb.Session)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *fb.Session) { s.HttpClient = hc }
}

// New returns a Graph API client for the page in creds.
func New(creds config.APICredentials, opts ...Option) (*Client, error) {
	var missing []string
	if creds.AccessToken == "" {
		missing = append(missing, config.EnvAccessToken)
	}
	if creds.PageID == "" {
		missing = append(missing, config.EnvPageID)
	}
	if len(missing) > 0 {
		return nil, fbpost.MissingEnvError{Provider: providerName, Variables: missing}
	}

	version := creds.Version
	if version == "" {
		version = config.DefaultAPIVersion
	}

	s := &fb.Session{
		Version:    version,
		HttpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetAccessToken(creds.AccessToken)

	return &Client{
		pageID: creds.PageID,
		open: func(ctx context.Context) session {
			return s.WithContext(ctx)
		},
	}, nil
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// PageInfo fetches the page name and audience counts.
func (c *Client) PageInfo(ctx context.Context) (PageInfo, error) {
	res, err := c.open(ctx).Get("/"+c.pageID, fb.Params{
		"fields": "id,name,fan_count,followers_count",
	})
	if err != nil {
		return PageInfo{}, classify("page info", err)
	}
	var info PageInfo
	if err := res.Decode(&info); err != nil {
		return PageInfo{}, fbpost.NewError(fbpost.ErrNetwork, providerName, "page info", fmt.Errorf("decode response: %w", err))
	}
	return info, nil
}

// PostText publishes a text-only status to the page feed.
func (c *Client) PostText(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fbpost.ValidationError{Provider: providerName, Reason: "message is empty"}
	}

	logutil.Infof("api: posting text to page %s", c.pageID)
	res, err := c.open(ctx).Post(c.edge("feed"), fb.Params{"message": message})
	if err != nil {
		return "", classify("post text", err)
	}
	return postID("post text", res)
}

// PostImage uploads one photo with an optional caption.
func (c *Client) PostImage(ctx context.Context, path, caption string) (string, error) {
	if err := checkMedia(path, fbpost.MediaImage); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fbpost.NewError(fbpost.ErrUpload, providerName, "open image", err)
	}
	defer f.Close()

	params := fb.Params{"source": fb.Data(filepath.Base(path), f)}
	if caption != "" {
		params["message"] = caption
	}

	logutil.Infof("api: uploading image %s", filepath.Base(path))
	res, err := c.open(ctx).Post(c.edge("photos"), params)
	if err != nil {
		return "", classify("post image", err)
	}
	return postID("post image", res)
}

// PostVideo uploads one video. The SDK routes POSTs to the videos edge through
// the graph-video host.
func (c *Client) PostVideo(ctx context.Context, path, title, description string) (string, error) {
	if err := checkMedia(path, fbpost.MediaVideo); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fbpost.NewError(fbpost.ErrUpload, providerName, "open video", err)
	}
	defer f.Close()

	params := fb.Params{"source": fb.Data(filepath.Base(path), f)}
	if title != "" {
		params["title"] = title
	}
	if description != "" {
		params["description"] = description
	}

	logutil.Infof("api: uploading video %s", filepath.Base(path))
	res, err := c.open(ctx).Post(c.edge("videos"), params)
	if err != nil {
		return "", classify("post video", err)
	}
	return postID("post video", res)
}

// PostLink shares a URL with an optional message.
func (c *Client) PostLink(ctx context.Context, link, message string) (string, error) {
	if err := checkLink(link); err != nil {
		return "", err
	}

	params := fb.Params{"link": link}
	if message != "" {
		params["message"] = message
	}

	logutil.Infof("api: sharing link %s", link)
	res, err := c.open(ctx).Post(c.edge("feed"), params)
	if err != nil {
		return "", classify("post link", err)
	}
	return postID("post link", res)
}

func (c *Client) edge(name string) string {
	return "/" + c.pageID + "/" + name
}

func checkLink(link string) error {
	if strings.TrimSpace(link) == "" {
		return fbpost.ValidationError{Provider: providerName, Reason: "link is empty"}
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fbpost.ValidationError{Provider: providerName, Reason: fmt.Sprintf("link %q must be an absolute http(s) URL", link)}
	}
	return nil
}

func checkMedia(path string, want fbpost.MediaKind) error {
	if path == "" {
		return fbpost.ValidationError{Provider: providerName, Reason: fmt.Sprintf("%s path is empty", want)}
	}
	if got := fbpost.KindByExtension(path); got != want {
		return fbpost.ValidationError{
			Provider: providerName,
			Reason:   fmt.Sprintf("unsupported %s format %q", want, filepath.Ext(path)),
		}
	}
	return fbpost.CheckMediaFiles(providerName, []string{path})
}

// postID prefers post_id, which photo uploads return alongside the photo id.
func postID(step string, res fb.Result) (string, error) {
	for _, field := range []string{"post_id", "id"} {
		if id, ok := res.Get(field).(string); ok && id != "" {
			logutil.Infof("api: published %s", id)
			return id, nil
		}
	}
	return "", fbpost.NewError(fbpost.ErrPostFailed, providerName, step, errors.New("response carried no post id"))
}

// classify maps Graph error codes onto the error taxonomy. Anything that is
// not a Graph error is a transport failure.
func classify(step string, err error) error {
	var graphErr *fb.Error
	if !errors.As(err, &graphErr) {
		return fbpost.NewError(fbpost.ErrNetwork, providerName, step, err)
	}

	logutil.Debugf("api: graph error type=%s code=%d subcode=%d", graphErr.Type, graphErr.Code, graphErr.ErrorSubcode)

	kind := fbpost.ErrPostFailed
	switch code := graphErr.Code; {
	case code == 190 || code == 102:
		kind = fbpost.ErrAuth
	case code == 10 || (code >= 200 && code <= 299):
		kind = fbpost.ErrPermission
	case code == 100:
		kind = fbpost.ErrValidation
	}
	return fbpost.NewError(kind, providerName, step, err)
}
