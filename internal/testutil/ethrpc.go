package testutil

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/stl/vault-solver/internal/pkg/blockchain/abis"
)

// JSONRPCRequest represents a JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// ContractHandler answers one eth_call to target. Returning revert=true makes
// the call fail the way a reverting contract does.
type ContractHandler func(target common.Address, data []byte) (ret []byte, revert bool)

// MockEthRPC is an in-process Ethereum node that answers eth_call, both
// directly and through a Multicall3 contract at MulticallAddr. It accepts
// single and batched JSON-RPC requests.
type MockEthRPC struct {
	*httptest.Server

	MulticallAddr common.Address

	// FailRequests makes the next N HTTP requests fail with 503.
	FailRequests atomic.Int32

	mu       sync.Mutex
	handler  ContractHandler
	requests int
}

// StartMockEthRPC starts a mock node backed by handler. The server is closed
// when the test finishes.
func StartMockEthRPC(t *testing.T, multicallAddr common.Address, handler ContractHandler) *MockEthRPC {
	t.Helper()

	m := &MockEthRPC{MulticallAddr: multicallAddr, handler: handler}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests++
		m.mu.Unlock()

		if m.FailRequests.Load() > 0 {
			m.FailRequests.Add(-1)
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
			return
		}

		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var reqs []JSONRPCRequest
			if err := json.Unmarshal(trimmed, &reqs); err != nil {
				_ = json.NewEncoder(w).Encode(rpcError(json.RawMessage(`1`), -32700, "parse error"))
				return
			}
			resps := make([]map[string]json.RawMessage, len(reqs))
			for i, req := range reqs {
				resps[i] = m.serve(t, req)
			}
			_ = json.NewEncoder(w).Encode(resps)
			return
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			_ = json.NewEncoder(w).Encode(rpcError(json.RawMessage(`1`), -32700, "parse error"))
			return
		}
		_ = json.NewEncoder(w).Encode(m.serve(t, req))
	}))
	t.Cleanup(m.Server.Close)
	return m
}

// Requests returns how many HTTP requests reached the node.
func (m *MockEthRPC) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// SetHandler swaps the contract handler, e.g. to simulate a state change.
func (m *MockEthRPC) SetHandler(handler ContractHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

func (m *MockEthRPC) serve(t *testing.T, req JSONRPCRequest) map[string]json.RawMessage {
	if req.Method != "eth_call" {
		return rpcError(req.ID, -32601, "method not found: "+req.Method)
	}

	target, data, ok := parseEthCall(req.Params)
	if !ok {
		return rpcError(req.ID, -32602, "invalid eth_call params")
	}

	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()

	if target == m.MulticallAddr && m.MulticallAddr != (common.Address{}) {
		ret, revert := serveAggregate3(t, handler, data)
		if revert {
			return rpcError(req.ID, 3, "execution reverted")
		}
		return rpcResult(req.ID, ret)
	}

	ret, revert := handler(target, data)
	if revert {
		return rpcError(req.ID, 3, "execution reverted")
	}
	return rpcResult(req.ID, ret)
}

// serveAggregate3 decodes an aggregate3 call, dispatches every inner call and
// packs the results. A failing inner call without allowFailure reverts the
// whole multicall, as the contract does.
func serveAggregate3(t *testing.T, handler ContractHandler, data []byte) ([]byte, bool) {
	multicallABI, err := abis.GetMulticall3ABI()
	if err != nil {
		t.Errorf("load multicall3 ABI: %v", err)
		return nil, true
	}
	method := multicallABI.Methods["aggregate3"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, true
	}
	unpacked, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(unpacked) != 1 {
		return nil, true
	}

	calls := reflect.ValueOf(unpacked[0])
	results := make([]MulticallResult, calls.Len())
	for i := 0; i < calls.Len(); i++ {
		call := calls.Index(i)
		target := call.FieldByName("Target").Interface().(common.Address)
		allowFailure := call.FieldByName("AllowFailure").Bool()
		callData := call.FieldByName("CallData").Bytes()

		ret, revert := handler(target, callData)
		if revert {
			if !allowFailure {
				return nil, true
			}
			results[i] = MulticallResult{Success: false, ReturnData: []byte{}}
			continue
		}
		results[i] = MulticallResult{Success: true, ReturnData: ret}
	}

	packed, err := method.Outputs.Pack(results)
	if err != nil {
		t.Errorf("packing aggregate3 results: %v", err)
		return nil, true
	}
	return packed, false
}

func parseEthCall(params json.RawMessage) (common.Address, []byte, bool) {
	var p []json.RawMessage
	if err := json.Unmarshal(params, &p); err != nil || len(p) < 1 {
		return common.Address{}, nil, false
	}
	var callObj map[string]interface{}
	if err := json.Unmarshal(p[0], &callObj); err != nil {
		return common.Address{}, nil, false
	}
	to, _ := callObj["to"].(string)
	// go-ethereum may use "data" or "input" for the calldata field
	dataHex, _ := callObj["data"].(string)
	if dataHex == "" {
		dataHex, _ = callObj["input"].(string)
	}
	data, err := hex.DecodeString(strings.TrimPrefix(dataHex, "0x"))
	if err != nil {
		return common.Address{}, nil, false
	}
	return common.HexToAddress(to), data, true
}

func rpcResult(id json.RawMessage, ret []byte) map[string]json.RawMessage {
	resultJSON, _ := json.Marshal("0x" + hex.EncodeToString(ret))
	return map[string]json.RawMessage{
		"jsonrpc": json.RawMessage(`"2.0"`),
		"id":      id,
		"result":  resultJSON,
	}
}

func rpcError(id json.RawMessage, code int, message string) map[string]json.RawMessage {
	errJSON, _ := json.Marshal(map[string]interface{}{"code": code, "message": message})
	return map[string]json.RawMessage{
		"jsonrpc": json.RawMessage(`"2.0"`),
		"id":      id,
		"error":   errJSON,
	}
}
