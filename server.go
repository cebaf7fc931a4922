package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/storemigrate/catalog-resolver/engine"
	"github.com/storemigrate/catalog-resolver/search"
	"github.com/storemigrate/catalog-resolver/store"
)

const (
	procHealth  = "/catalog.v1.CatalogAPI/Health"
	procResolve = "/catalog.v1.CatalogAPI/Resolve"
	procStats   = "/catalog.v1.CatalogAPI/Stats"
	procRebuild = "/catalog.v1.CatalogAPI/RebuildIndex"
)

// apiServer serves the consolidation engine over Connect. All endpoints
// speak generic JSON structs so clients need no generated stubs.
type apiServer struct {
	engine  *engine.Engine
	db      *store.Store
	aliases engine.Aliases
	indexer *search.Indexer
	logger  *zap.Logger

	mu     sync.Mutex
	latest *engine.Result
}

func toStructPB(v interface{}) (*structpb.Struct, error) {
	// Round-trip through JSON so any result type becomes a plain map.
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func (s *apiServer) health(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	st, err := structpb.NewStruct(map[string]interface{}{"status": "healthy"})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(st), nil
}

// resolve runs one consolidation pass. Records come inline in the request
// under "records", or from the database when the request carries none.
func (s *apiServer) resolve(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	records, err := s.requestRecords(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("no records to resolve"))
	}

	tables := engine.LookupTables{}
	if s.db != nil {
		tables, err = s.db.LoadLookupTables(ctx)
		if err != nil {
			return nil, err
		}
	}

	res, err := s.engine.Run(records, tables)
	if err != nil {
		return nil, err
	}
	if err := res.CheckProjections(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()

	st, err := toStructPB(map[string]interface{}{
		"runId":     res.RunID,
		"stats":     res.Stats,
		"families":  res.Families,
		"decisions": res.Log.Entries(),
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(st), nil
}

func (s *apiServer) stats(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	s.mu.Lock()
	res := s.latest
	s.mu.Unlock()
	if res == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no consolidation run yet"))
	}
	st, err := toStructPB(map[string]interface{}{
		"runId": res.RunID,
		"stats": res.Stats,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(st), nil
}

func (s *apiServer) rebuildIndex(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	if s.indexer == nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("search indexing not configured"))
	}
	s.mu.Lock()
	res := s.latest
	s.mu.Unlock()
	if res == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no consolidation run yet"))
	}
	indexed, err := s.indexer.Rebuild(res)
	if err != nil {
		return nil, err
	}
	st, err := toStructPB(map[string]interface{}{
		"status":  "completed",
		"indexed": indexed,
		"runId":   res.RunID,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(st), nil
}

// requestRecords decodes inline records from the request, falling back to
// the database snapshot.
func (s *apiServer) requestRecords(ctx context.Context, msg *structpb.Struct) ([]engine.ProductRecord, error) {
	if msg != nil {
		if raw, ok := msg.AsMap()["records"]; ok {
			b, err := json.Marshal(raw)
			if err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("bad records payload: %w", err))
			}
			var records []engine.ProductRecord
			if err := json.Unmarshal(b, &records); err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("bad records payload: %w", err))
			}
			for i := range records {
				records[i] = s.aliases.ApplyTo(records[i])
			}
			return records, nil
		}
	}
	if s.db == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no inline records and no database configured"))
	}
	return s.db.LoadRecords(ctx)
}

// runConnectServer wires the API behind CORS and h2c and blocks serving.
func runConnectServer(srv *apiServer, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(procHealth, connect.NewUnaryHandler(procHealth, srv.health))
	mux.Handle(procResolve, connect.NewUnaryHandler(procResolve, srv.resolve))
	mux.Handle(procStats, connect.NewUnaryHandler(procStats, srv.stats))
	mux.Handle(procRebuild, connect.NewUnaryHandler(procRebuild, srv.rebuildIndex))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Connect-Protocol-Version"},
		ExposedHeaders:   []string{"Grpc-Status", "Grpc-Message"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	h2cHandler := h2c.NewHandler(corsHandler.Handler(mux), &http2.Server{})

	srv.logger.Info("catalog API listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, h2cHandler)
}
