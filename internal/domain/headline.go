package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Headline - нормализованный заголовок, который отдается клиенту.
// Date хранится с точностью до секунды в UTC, поэтому строка в JSON
// разбирается обратно ровно в тот же момент времени.
type Headline struct {
	Title string
	Link  string
	Date  *time.Time
}

type headlineJSON struct {
	Title string  `json:"title"`
	Link  string  `json:"link"`
	Date  *string `json:"date"`
}

// NewHeadline создает заголовок, приводя дату к UTC и отбрасывая доли секунды.
func NewHeadline(title, link string, published *time.Time) Headline {
	h := Headline{Title: title, Link: link}
	if published != nil {
		d := published.UTC().Truncate(time.Second)
		h.Date = &d
	}
	return h
}

// Dated сообщает, есть ли у заголовка распознанная дата.
func (h Headline) Dated() bool { return h.Date != nil }

// Epoch возвращает Unix-время публикации или 0 для заголовков без даты.
func (h Headline) Epoch() int64 {
	if h.Date == nil {
		return 0
	}
	return h.Date.Unix()
}

func (h Headline) MarshalJSON() ([]byte, error) {
	out := headlineJSON{Title: h.Title, Link: h.Link}
	if h.Date != nil {
		s := h.Date.UTC().Format(time.RFC3339)
		out.Date = &s
	}
	return json.Marshal(out)
}

func (h *Headline) UnmarshalJSON(data []byte) error {
	var in headlineJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	h.Title = in.Title
	h.Link = in.Link
	h.Date = nil
	if in.Date != nil {
		t, err := time.Parse(time.RFC3339, *in.Date)
		if err != nil {
			return fmt.Errorf("invalid headline date %q: %w", *in.Date, err)
		}
		t = t.UTC()
		h.Date = &t
	}
	return nil
}
