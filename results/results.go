// Package results fetches official draw results from the public Caixa
// lottery API (https://loteriascaixa-api.herokuapp.com).
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bolao-jogos/bolao/he"
	"github.com/bolao-jogos/bolao/model"
)

// DrawResult is one official draw as reported by the API.
type DrawResult struct {
	Contest int
	Date    string
	Numbers []int
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

// apiResponse matches the Caixa API payload.  Dezenas come back as
// zero-padded decimal strings.
type apiResponse struct {
	Concurso int      `json:"concurso"`
	Data     string   `json:"data"`
	Dezenas  []string `json:"dezenas"`
}

func gameSlug(gt model.GameType) (string, error) {
	switch gt {
	case model.MegaSena:
		return "megasena", nil
	case model.Lotofacil:
		return "lotofacil", nil
	default:
		return "", fmt.Errorf("no API slug for game type %q", gt)
	}
}

// Latest fetches the most recent completed draw for the given game.
func (c *Client) Latest(ctx context.Context, gt model.GameType) (*DrawResult, error) {
	return c.fetch(ctx, gt, "latest")
}

// Contest fetches a specific contest number for the given game.
func (c *Client) Contest(ctx context.Context, gt model.GameType, contest int) (*DrawResult, error) {
	return c.fetch(ctx, gt, strconv.Itoa(contest))
}

func (c *Client) fetch(ctx context.Context, gt model.GameType, which string) (*DrawResult, error) {
	slug, err := gameSlug(gt)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, slug, which)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %v: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, he.HTTPCodedErrorf(502, "results API returned %v for %v", resp.Status, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var ar apiResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("decoding results API response: %w", err)
	}

	return ar.toResult()
}

func (ar *apiResponse) toResult() (*DrawResult, error) {
	numbers := make([]int, 0, len(ar.Dezenas))
	for _, d := range ar.Dezenas {
		n, err := strconv.Atoi(d)
		if err != nil {
			return nil, fmt.Errorf("bad dezena %q in contest %d: %w", d, ar.Concurso, err)
		}
		numbers = append(numbers, n)
	}

	return &DrawResult{
		Contest: ar.Concurso,
		Date:    ar.Data,
		Numbers: numbers,
	}, nil
}
