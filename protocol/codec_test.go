package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/flowmux/river/protocol"
)

type addResult struct {
	Result int `json:"result"`
}

func TestRiverResultOkFlattensFields(t *testing.T) {
	r := protocol.Ok(addResult{Result: 7})
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if raw["ok"] != true {
		t.Errorf("ok = %v, want true", raw["ok"])
	}
	if raw["result"] != float64(7) {
		t.Errorf("result = %v, want 7", raw["result"])
	}

	var back protocol.RiverResult[addResult]
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("round-trip Unmarshal: %v", err)
	}
	if !back.Ok || back.Value.Result != 7 {
		t.Errorf("round trip = %+v, want Ok=true Value.Result=7", back)
	}
}

func TestRiverResultErrCarriesMessageAndCode(t *testing.T) {
	r := protocol.Err[addResult]("boom", protocol.UncaughtErrorCode)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back protocol.RiverResult[addResult]
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Ok {
		t.Error("Ok should be false")
	}
	if back.Message != "boom" || back.Code != protocol.UncaughtErrorCode {
		t.Errorf("got message=%q code=%q", back.Message, back.Code)
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := protocol.JSONCodec{}
	in := protocol.RPCMetadata{Service: "adder", Procedure: "add", Pattern: protocol.PatternRPC}
	data, err := c.EncodeValue(in)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	var out protocol.RPCMetadata
	if err := c.DecodeValue(data, &out); err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestMessagePackCodecRoundTrip(t *testing.T) {
	c := protocol.MessagePackCodec{}
	in := protocol.Ok(addResult{Result: 42})
	data, err := c.EncodeValue(in)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}

	var out protocol.RiverResult[addResult]
	if err := c.DecodeValue(data, &out); err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if !out.Ok || out.Value.Result != 42 {
		t.Errorf("round trip = %+v, want Ok=true Value.Result=42", out)
	}
}

func TestDynCodecSelectsByName(t *testing.T) {
	if _, ok := any(protocol.NewDynCodec("messagepack")).(protocol.Codec); !ok {
		t.Fatal("DynCodec must satisfy Codec")
	}
	jc := protocol.NewDynCodec("json")
	data, err := jc.EncodeValue(map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if string(data) != `{"n":1}` {
		t.Errorf("json codec produced %s", data)
	}
}
