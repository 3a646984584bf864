package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"StockSentinel/internal/model"
)

func rec(sym string, score float64, cat model.Category) model.Recommendation {
	return model.Recommendation{
		Symbol:     sym,
		Score:      score,
		Category:   cat,
		Price:      123.456,
		Indicators: model.IndicatorSet{RSI14: model.Float(61.23)},
	}
}

func TestFormatLine(t *testing.T) {
	r := rec("NVDA", 35, model.CategoryBuy)
	if got, want := FormatLine(r), "NVDA BUY (score 35) - $123.46 - RSI 61.2"; got != want {
		t.Errorf("FormatLine = %q, want %q", got, want)
	}
	r.Synthetic = true
	if !strings.HasSuffix(FormatLine(r), "[SYNTHETIC]") {
		t.Error("synthetic recommendation must be marked")
	}
}

func TestFormatAlert(t *testing.T) {
	var recs []model.Recommendation
	for i := 0; i < 12; i++ {
		recs = append(recs, rec("S"+string(rune('A'+i)), 30, model.CategoryBuy))
	}

	tests := []struct {
		scan      string
		portfolio bool
		title     string
		header    string
	}{
		{"market", false, "Market BUY Alerts", "New BUY signals"},
		{"market", true, "Market BUY Alerts", "New BUY signals (portfolio-filtered)"},
		{"etf", false, "ETF BUY Alerts", "New ETF BUY signals"},
	}
	for _, tt := range tests {
		msg := FormatAlert(tt.scan, recs, tt.portfolio)
		if msg.Title != tt.title {
			t.Errorf("title = %q, want %q", msg.Title, tt.title)
		}
		lines := strings.Split(msg.Text, "\n")
		if lines[0] != tt.header {
			t.Errorf("header = %q, want %q", lines[0], tt.header)
		}
		if len(lines) != 1+MaxAlertLines+1 || lines[len(lines)-1] != "... and 2 more" {
			t.Errorf("expected %d lines plus overflow note, got %v", MaxAlertLines, lines)
		}
	}
}

func TestFormatSummary(t *testing.T) {
	res := &model.BatchResult{
		Period:    model.Period1Y,
		Requested: []string{"A", "B", "C", "D"},
		Ranked: []model.Recommendation{
			rec("A", 40, model.CategoryBuy),
			rec("B", 0, model.CategoryHold),
			rec("C", -30, model.CategorySell),
		},
		Failed: []string{"D"},
	}
	out := FormatSummary(res, 5)
	for _, want := range []string{"Analyzed 3/4", "BUY 1 | HOLD 1 | SELL 1", "Top BUY:\n  A BUY", "Top SELL:\n  C SELL", "Failed: D"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.BaseURL = srv.URL
	if err := tn.Send(context.Background(), Message{Title: "Market BUY Alerts", Text: "AT&T <up>"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["chat_id"] != "42" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}
	if got["text"] != "<b>Market BUY Alerts</b>\n\nAT&amp;T &lt;up&gt;" {
		t.Errorf("text not escaped: %q", got["text"])
	}
}

func TestPushoverSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("token") != "app" || r.PostForm.Get("user") != "user" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":0,"errors":["invalid token"]}`))
			return
		}
		w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	p := NewPushoverNotifier("app", "user", "")
	p.URL = srv.URL
	if err := p.Send(context.Background(), Message{Title: "t", Text: "m"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	p.AppToken = "wrong"
	if err := p.Send(context.Background(), Message{Title: "t", Text: "m"}); err == nil {
		t.Error("expected API error")
	}
}

func TestClipRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "héllo", 10, "héllo"},
		{"exact multibyte", strings.Repeat("é", 5), 5, strings.Repeat("é", 5)},
		{"cut multibyte", "€€€€€€€€", 6, "€€€..."},
		{"cut emoji", "📈📈📈📈📈", 4, "📈..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipRunes(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("clipRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestPushoverSend_ClipsOnCharacters(t *testing.T) {
	var message string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		message = r.PostForm.Get("message")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	p := NewPushoverNotifier("app", "user", "")
	p.URL = srv.URL

	// 1024 two-byte characters fit even though they are 2048 bytes.
	fits := strings.Repeat("é", maxPushoverLen)
	if err := p.Send(context.Background(), Message{Title: "t", Text: fits}); err != nil {
		t.Fatal(err)
	}
	if message != fits {
		t.Errorf("message within the limit was altered: %d chars", utf8.RuneCountInString(message))
	}

	long := strings.Repeat("📉", maxPushoverLen+50)
	if err := p.Send(context.Background(), Message{Title: "t", Text: long}); err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(message) || !strings.HasSuffix(message, "...") {
		t.Fatalf("clipped message is malformed: %q", message[len(message)-8:])
	}
	if n := utf8.RuneCountInString(message); n != maxPushoverLen {
		t.Errorf("clipped to %d chars, want %d", n, maxPushoverLen)
	}
}

type flaky struct {
	failures int32
	calls    atomic.Int32
}

func (f *flaky) Name() string { return "flaky" }

func (f *flaky) Send(context.Context, Message) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("unavailable")
	}
	return nil
}

func TestSendWithRetry(t *testing.T) {
	old := RetryBase
	RetryBase = time.Millisecond
	defer func() { RetryBase = old }()

	f := &flaky{failures: 2}
	if err := SendWithRetry(context.Background(), f, Message{}, 3, nil); err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if f.calls.Load() != 3 {
		t.Errorf("calls = %d", f.calls.Load())
	}

	f = &flaky{failures: 10}
	if err := SendWithRetry(context.Background(), f, Message{}, 2, nil); err == nil {
		t.Error("expected exhausted retries")
	}
	if f.calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", f.calls.Load())
	}
}

func TestMultiSend(t *testing.T) {
	old := RetryBase
	RetryBase = time.Millisecond
	defer func() { RetryBase = old }()

	ok := &flaky{}
	bad := &flaky{failures: 100}
	m := &Multi{Notifiers: []Notifier{bad, ok}, MaxRetries: 1}
	if err := m.Send(context.Background(), Message{}); err == nil {
		t.Error("expected joined error")
	}
	if ok.calls.Load() != 1 {
		t.Error("healthy notifier should still receive the message")
	}
}

func TestFormatFundamentals(t *testing.T) {
	tests := []struct {
		name string
		f    *model.Fundamentals
		want string
	}{
		{"nil", nil, "N/A"},
		{"empty", &model.Fundamentals{}, "N/A"},
		{
			name: "partial",
			f: &model.Fundamentals{
				PERatio:       model.Float(28.12),
				DividendYield: model.Float(0.52),
				High52W:       model.Float(199.62),
				Low52W:        model.Float(124.17),
				MarketCap:     2_950_000_000_000,
			},
			want: "P/E 28.12 | Div 0.52% | 52W 124.17-199.62 | Cap $2.95T",
		},
		{"one-sided range is skipped", &model.Fundamentals{High52W: model.Float(10)}, "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFundamentals(tt.f); got != tt.want {
				t.Errorf("FormatFundamentals() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRecommendation_Fundamentals(t *testing.T) {
	r := rec("AAPL", 10, model.CategoryHold)
	if strings.Contains(FormatRecommendation(r), "Fundamentals:") {
		t.Error("no fundamentals line expected without data")
	}
	r.Fundamentals = &model.Fundamentals{PERatio: model.Float(21.5)}
	if !strings.Contains(FormatRecommendation(r), "Fundamentals: P/E 21.5") {
		t.Errorf("fundamentals line missing:\n%s", FormatRecommendation(r))
	}
}
