package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"livefeed/internal/application/usecase/feed"
	"livefeed/internal/domain"
)

// Feed is the part of the live feed the bridge exposes.
type Feed interface {
	SubscribeMany(tokens []string, onPrices feed.PricesFunc) (unsubscribe func())
	Candles(token string) []domain.Candle
	PercentChange(token string) (float64, bool)
	Running() bool
	ActiveTokens() []string
	LastFetchAt(token string) time.Time
	RateLimitState() feed.RateLimitState
}

var _ Feed = (*feed.Service)(nil)

// Server 将 feed 订阅桥接到 websocket 客户端
type Server struct {
	feed     Feed
	addr     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]*client
}

func New(f Feed, addr string) *Server {
	return &Server{
		feed: f,
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*client),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/candles", s.handleCandles)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Run 监听直到 ctx 取消, 然后关闭所有客户端
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("wsapi listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.CloseAll()
	return err
}

// Clients 当前连接数
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// CloseAll 断开全部客户端并释放其订阅
func (s *Server) CloseAll() {
	s.mu.Lock()
	cs := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		cs = append(cs, c)
	}
	s.mu.Unlock()

	for _, c := range cs {
		c.close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	log.Debug().Str("client", c.id.String()).Msg("ws client disconnected")
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(s, conn)
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	c.enqueue(Frame{Type: TypeWelcome, ClientID: c.id.String(), Ts: nowMs()})

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	token := domain.NormalizeToken(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	resp := CandlesResponse{Token: token, Candles: candleViews(s.feed.Candles(token))}
	if pct, ok := s.feed.PercentChange(token); ok {
		resp.PercentChange = &pct
	}
	writeJSON(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.feed.RateLimitState()
	resp := StatusResponse{
		Running:           s.feed.Running(),
		ActiveTokens:      s.feed.ActiveTokens(),
		IntervalMs:        st.CurrentInterval.Milliseconds(),
		ConsecutiveErrors: st.ConsecutiveErrors,
		Clients:           s.Clients(),
	}
	if !st.RateLimitedUntil.IsZero() {
		resp.RateLimitedUntil = st.RateLimitedUntil.UnixMilli()
	}
	for _, token := range resp.ActiveTokens {
		at := s.feed.LastFetchAt(token)
		if at.IsZero() {
			continue
		}
		if resp.LastFetch == nil {
			resp.LastFetch = make(map[string]int64, len(resp.ActiveTokens))
		}
		resp.LastFetch[token] = at.UnixMilli()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write json response failed")
	}
}
