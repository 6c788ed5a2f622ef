package explorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/liamzebedee/tinyconsensus/core"
	"github.com/liamzebedee/tinyconsensus/core/dolevstrong"
	"github.com/liamzebedee/tinyconsensus/core/nakamoto"
)

// Upper bound on n for on-demand broadcast runs.
const MaxBroadcastNodes = 64

// BlockExplorerServer serves a read-only JSON view of a chain store, and runs broadcasts on
// demand.
type BlockExplorerServer struct {
	router *mux.Router
	log    *log.Logger

	host        string
	port        int
	environment string

	// The chain store is not safe for concurrent use.
	mu    sync.Mutex
	store *nakamoto.ChainStore
}

func NewBlockExplorerServer(store *nakamoto.ChainStore, port int) (*BlockExplorerServer, error) {
	log := core.NewLogger("explorer", "")
	environment := os.Getenv("ENV")
	if environment == "" {
		environment = "dev"
	}
	if !(environment == "dev" || environment == "test" || environment == "live") {
		return nil, fmt.Errorf("Invalid environment %s, must be one of (dev, test, live)", environment)
	}

	log.Println("Environment:", environment)
	host := map[string]string{
		"dev":  "127.0.0.1",
		"test": "0.0.0.0",
		"live": "0.0.0.0",
	}[environment]

	expl := &BlockExplorerServer{
		router:      mux.NewRouter(),
		log:         log,
		host:        host,
		port:        port,
		environment: environment,
		store:       store,
	}

	expl.router.HandleFunc("/api/chain", expl.getChain).Methods(http.MethodGet)
	expl.router.HandleFunc("/api/chain/log", expl.getLog).Methods(http.MethodGet)
	expl.router.HandleFunc("/api/blocks/{hash}", expl.getBlock).Methods(http.MethodGet)
	expl.router.HandleFunc("/api/pending", expl.getPending).Methods(http.MethodGet)
	expl.router.HandleFunc("/api/broadcast", expl.runBroadcast).Methods(http.MethodGet)

	return expl, nil
}

func (expl *BlockExplorerServer) Handler() http.Handler {
	return expl.router
}

func (expl *BlockExplorerServer) Start() error {
	expl.log.Println("Starting explorer server...")
	listenAddr := fmt.Sprintf("%s:%d", expl.host, expl.port)
	expl.log.Printf("Listening on http://%s", listenAddr)
	return http.ListenAndServe(listenAddr, expl.router)
}

func (expl *BlockExplorerServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		expl.log.Printf("Failed to write response: %s\n", err)
	}
}

func (expl *BlockExplorerServer) getChain(w http.ResponseWriter, r *http.Request) {
	expl.mu.Lock()
	chain := expl.store.Chain()
	expl.mu.Unlock()

	blocks := make([]BlockView, 0, len(chain))
	for _, b := range chain {
		blocks = append(blocks, NewBlockView(b, true))
	}
	expl.writeJSON(w, http.StatusOK, map[string]interface{}{
		"length": len(blocks),
		"blocks": blocks,
	})
}

func (expl *BlockExplorerServer) getLog(w http.ResponseWriter, r *http.Request) {
	expl.mu.Lock()
	payloads := expl.store.OrderedPayloadLog()
	expl.mu.Unlock()

	expl.writeJSON(w, http.StatusOK, map[string]interface{}{
		"log": payloads,
	})
}

func (expl *BlockExplorerServer) getBlock(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(mux.Vars(r)["hash"])

	expl.mu.Lock()
	block, ok := expl.store.GetBlockByHash(hash)
	canonical := false
	if ok {
		chain := expl.store.Chain()
		canonical = block.Height < uint64(len(chain)) && chain[block.Height].Hash() == hash
	}
	expl.mu.Unlock()

	if !ok {
		http.Error(w, "Block not found", http.StatusNotFound)
		return
	}
	expl.writeJSON(w, http.StatusOK, NewBlockView(block, canonical))
}

func (expl *BlockExplorerServer) getPending(w http.ResponseWriter, r *http.Request) {
	expl.mu.Lock()
	pending := expl.store.Pending()
	expl.mu.Unlock()

	blocks := make([]BlockView, 0, len(pending))
	for _, b := range pending {
		blocks = append(blocks, NewBlockView(b, false))
	}
	expl.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": blocks,
	})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %s", key, s)
	}
	return v, nil
}

func parseCorrupt(s string) ([]dolevstrong.NodeID, error) {
	corrupt := []dolevstrong.NodeID{}
	if strings.TrimSpace(s) == "" {
		return corrupt, nil
	}
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("Invalid corrupt node: %s", part)
		}
		corrupt = append(corrupt, dolevstrong.NodeID(id))
	}
	return corrupt, nil
}

func (expl *BlockExplorerServer) runBroadcast(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	n, err := queryInt(r, "n", 4)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := queryInt(r, "f", 1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if n > MaxBroadcastNodes {
		http.Error(w, fmt.Sprintf("n must be at most %d", MaxBroadcastNodes), http.StatusBadRequest)
		return
	}
	corrupt, err := parseCorrupt(query.Get("corrupt"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input := query.Get("input")
	if input == "" {
		input = "1"
	}

	signer, err := dolevstrong.NewSigner(query.Get("signer"), max(n, 0))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := RunBroadcastScenario(dolevstrong.Params{
		N:           n,
		F:           f,
		SenderInput: input,
		Corrupt:     corrupt,
		Signer:      signer,
	})
	if errors.Is(err, dolevstrong.ErrInvalidParams) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	expl.writeJSON(w, http.StatusOK, report)
}
