package bot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type apiCall struct {
	method string
	params url.Values
}

// fakeAPI mimics the parts of the Bot API the package calls.
type fakeAPI struct {
	mu             sync.Mutex
	calls          []apiCall
	nextID         int
	rejectMarkdown bool
	notModified    bool
}

func newFakeBot(t *testing.T) (*tgbotapi.BotAPI, *fakeAPI) {
	t.Helper()
	f := &fakeAPI{nextID: 100}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("TEST", srv.URL+"/bot%s/%s", srv.Client())
	if err != nil {
		t.Fatalf("NewBotAPIWithClient: %v", err)
	}
	return bot, f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := path.Base(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Game","username":"game_bot"}}`)
		return
	case "answerCallbackQuery":
		f.record(method, r.PostForm)
		fmt.Fprint(w, `{"ok":true,"result":true}`)
		return
	}

	f.mu.Lock()
	reject := f.rejectMarkdown && r.PostForm.Get("parse_mode") == tgbotapi.ModeMarkdown
	unchanged := f.notModified && method == "editMessageText"
	f.mu.Unlock()
	if reject {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: Can't find end of the entity starting at byte offset 3"}`)
		return
	}
	if unchanged {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified: specified new message content and reply markup are exactly the same"}`)
		return
	}

	id := f.record(method, r.PostForm)
	if v := r.PostForm.Get("message_id"); v != "" {
		fmt.Sscan(v, &id)
	}
	chatID := r.PostForm.Get("chat_id")
	body, _ := json.Marshal(map[string]any{
		"ok": true,
		"result": map[string]any{
			"message_id": id,
			"date":       0,
			"chat":       map[string]any{"id": json.Number(chatID), "type": "private"},
			"text":       r.PostForm.Get("text"),
		},
	})
	w.Write(body)
}

func (f *fakeAPI) record(method string, params url.Values) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.calls = append(f.calls, apiCall{method: method, params: params})
	return f.nextID
}

func (f *fakeAPI) sent() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func (f *fakeAPI) texts() []string {
	var out []string
	for _, c := range f.sent() {
		if c.method == "sendMessage" || c.method == "editMessageText" {
			out = append(out, c.params.Get("text"))
		}
	}
	return out
}

func (f *fakeAPI) textsFor(chatID int64) []string {
	var out []string
	for _, c := range f.sent() {
		if (c.method == "sendMessage" || c.method == "editMessageText") &&
			c.params.Get("chat_id") == strconv.FormatInt(chatID, 10) {
			out = append(out, c.params.Get("text"))
		}
	}
	return out
}

func (f *fakeAPI) set(reject, unchanged bool) {
	f.mu.Lock()
	f.rejectMarkdown = reject
	f.notModified = unchanged
	f.mu.Unlock()
}
