// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	jsonrpc2ws "github.com/sourcegraph/jsonrpc2/websocket"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"forgehir/internal/globals"
	"forgehir/internal/lsp"
)

const lsName = "forgehir"

var version = "0.0.1"

func main() {
	manifestPath := flag.String("globals", "", "path to a globals manifest file (defaults to the built-in set)")
	hirAddr := flag.String("ws", "", "if set, also serve forgehir/printHIR over a websocket at this address (e.g. :7777), independent of the stdio LSP connection")
	flag.Parse()

	commonlog.Configure(1, nil)

	defs, err := globals.LoadOrDefault(*manifestPath)
	if err != nil {
		log.Fatalf("failed to load globals manifest %s: %v", *manifestPath, err)
	}

	h := lsp.NewHandler(defs)

	handler := protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		SetTrace:                       h.SetTrace,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	if *hirAddr != "" {
		go serveHIRStream(h, *hirAddr)
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting forgehir LSP server...")
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting forgehir LSP server:", err)
		os.Exit(1)
	}
}

// printHIRRequest is the payload of a forgehir/printHIR request arriving on
// the side-channel websocket below, mirroring lsp.Handler.PrintHIR's
// parameters.
type printHIRRequest struct {
	URI      string `json:"uri"`
	Function string `json:"function"`
}

var hirUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveHIRStream runs a websocket endpoint dedicated to forgehir/printHIR,
// wired directly against jsonrpc2 and gorilla/websocket rather than through
// glsp's own stdio dispatch (DOMAIN STACK: both deps otherwise only reach
// this binary transitively through glsp). Any jsonrpc2 client - an editor's
// debug panel, a small web viewer - can open a connection here and request a
// function's HIR without going through the main LSP session at all.
func serveHIRStream(h *lsp.Handler, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/forgehir/hir", func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := hirUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("printHIR stream upgrade failed:", err)
			return
		}
		stream := jsonrpc2ws.NewObjectStream(wsConn)
		conn := jsonrpc2.NewConn(context.Background(), stream, &hirStreamHandler{h: h})
		<-conn.DisconnectNotify()
	})

	log.Printf("Serving forgehir/printHIR over websocket at ws://%s/forgehir/hir\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Println("printHIR stream server error:", err)
	}
}

type hirStreamHandler struct {
	h *lsp.Handler
}

func (s *hirStreamHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Method != "forgehir/printHIR" {
		if !req.Notif {
			conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeMethodNotFound,
				Message: fmt.Sprintf("method not found: %s", req.Method),
			})
		}
		return
	}

	var params printHIRRequest
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			if !req.Notif {
				conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()})
			}
			return
		}
	}

	if err := s.h.PrintHIR(conn, protocol.DocumentUri(params.URI), params.Function); err != nil {
		if !req.Notif {
			conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()})
		}
		return
	}

	if !req.Notif {
		if err := conn.Reply(ctx, req.ID, true); err != nil {
			log.Println("printHIR reply failed:", err)
		}
	}
}
