// Package ingest reads post batches from JSON or JSON Lines files.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/models"
)

// MaxLineBytes bounds one JSON Lines record
const MaxLineBytes = 4 * 1024 * 1024

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Result is a decoded batch
type Result struct {
	Posts   []models.Post
	Skipped int // records that could not be decoded
}

// flex is a JSON scalar that may arrive as a number or a string
type flex string

func (f *flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flex(strings.TrimSpace(s))
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return fmt.Errorf("expected scalar, got %s", data[:1])
	}
	*f = flex(data)
	return nil
}

// asInt parses leniently; unparseable values become 0
func (f flex) asInt() int64 {
	s := strings.ReplaceAll(string(f), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return int64(v)
	}
	return 0
}

func (f flex) asFloat() *float64 {
	v, err := strconv.ParseFloat(string(f), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (f flex) asTime() time.Time {
	s := string(f)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	return time.Time{}
}

type rawEngagement struct {
	Likes    flex `json:"likes"`
	Comments flex `json:"comments"`
	Reposts  flex `json:"reposts"`
	Reads    flex `json:"reads"`
}

// rawPost accepts the field names the common feed exports use
type rawPost struct {
	ID          flex           `json:"id"`
	PostID      flex           `json:"post_id"`
	Title       string         `json:"title"`
	Text        string         `json:"text"`
	Content     string         `json:"content"`
	URL         string         `json:"url"`
	AuthorID    flex           `json:"author_id"`
	UserID      flex           `json:"user_id"`
	AuthorReach flex           `json:"author_reach"`
	Followers   flex           `json:"followers"`
	Engagement  *rawEngagement `json:"engagement"`
	Likes       flex           `json:"likes"`
	Attitudes   flex           `json:"attitudes"`
	Comments    flex           `json:"comments"`
	Reposts     flex           `json:"reposts"`
	Reads       flex           `json:"reads"`
	PublishedAt flex           `json:"published_at"`
	CreatedAt   flex           `json:"created_at"`
	AIScore     flex           `json:"ai_score"`
}

func first(values ...flex) flex {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r rawPost) post() models.Post {
	text := r.Text
	if strings.TrimSpace(text) == "" {
		text = r.Content
	}

	p := models.Post{
		ID:          string(first(r.ID, r.PostID)),
		Title:       strings.TrimSpace(r.Title),
		Text:        strings.TrimSpace(text),
		URL:         strings.TrimSpace(r.URL),
		AuthorID:    string(first(r.AuthorID, r.UserID)),
		AuthorReach: first(r.AuthorReach, r.Followers).asInt(),
		PublishedAt: first(r.PublishedAt, r.CreatedAt).asTime(),
		AIScore:     r.AIScore.asFloat(),
	}

	e := rawEngagement{Likes: first(r.Likes, r.Attitudes), Comments: r.Comments, Reposts: r.Reposts, Reads: r.Reads}
	if r.Engagement != nil {
		e = rawEngagement{
			Likes:    first(r.Engagement.Likes, e.Likes),
			Comments: first(r.Engagement.Comments, e.Comments),
			Reposts:  first(r.Engagement.Reposts, e.Reposts),
			Reads:    first(r.Engagement.Reads, e.Reads),
		}
	}
	p.Engagement = models.Engagement{
		Likes:    e.Likes.asInt(),
		Comments: e.Comments.asInt(),
		Reposts:  e.Reposts.asInt(),
		Reads:    e.Reads.asInt(),
	}

	return p.Sanitize()
}

func decodeRecord(data []byte, index int) (models.Post, error) {
	var raw rawPost
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Post{}, err
	}
	p := raw.post()
	if p.FullText() == "" {
		return models.Post{}, fmt.Errorf("record %d has no text", index)
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("post-%d", index)
	}
	return p, nil
}

// Load decodes a JSON array or JSON Lines stream. Malformed records are
// skipped and counted; only an unreadable stream is an error.
func Load(r io.Reader, logger arbor.ILogger) (*Result, error) {
	br := bufio.NewReader(r)
	lead, err := peekNonSpace(br)
	if err == io.EOF {
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}

	if lead == '[' {
		return loadArray(br, logger)
	}
	return loadLines(br, logger)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		// UTF-8 BOM
		if b == 0xEF {
			if bom, _ := br.Peek(2); len(bom) == 2 && bom[0] == 0xBB && bom[1] == 0xBF {
				br.Discard(2)
				continue
			}
		}
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			return b, br.UnreadByte()
		}
	}
}

func loadArray(r io.Reader, logger arbor.ILogger) (*Result, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode post array: %w", err)
	}

	result := &Result{Posts: make([]models.Post, 0, len(records))}
	for i, rec := range records {
		p, err := decodeRecord(rec, i+1)
		if err != nil {
			result.Skipped++
			logSkip(logger, i+1, err)
			continue
		}
		result.Posts = append(result.Posts, p)
	}
	return result, nil
}

func loadLines(r io.Reader, logger arbor.ILogger) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	result := &Result{}
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		p, err := decodeRecord(data, line)
		if err != nil {
			result.Skipped++
			logSkip(logger, line, err)
			continue
		}
		result.Posts = append(result.Posts, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read post lines: %w", err)
	}
	return result, nil
}

func logSkip(logger arbor.ILogger, index int, err error) {
	if logger == nil {
		return
	}
	logger.Debug().Int("record", index).Err(err).Msg("Skipping malformed post")
}

// LoadPosts reads posts from a file
func LoadPosts(path string, logger arbor.ILogger) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open posts file %s: %w", path, err)
	}
	defer f.Close()

	result, err := Load(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if logger != nil {
		logger.Info().
			Str("path", path).
			Int("posts", len(result.Posts)).
			Int("skipped", result.Skipped).
			Msg("Posts loaded")
	}
	return result, nil
}
