// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package receipts defines the records a transaction's execution leaves
// behind and the commitment computed over them.
package receipts

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// Kind tags which fields of a Receipt are meaningful.
type Kind uint8

const (
	KindCall Kind = iota
	KindReturn
	KindReturnData
	KindPanic
	KindRevert
	KindLog
	KindLogData
	KindScriptResult
)

var kindNames = [...]string{
	KindCall:         "Call",
	KindReturn:       "Return",
	KindReturnData:   "ReturnData",
	KindPanic:        "Panic",
	KindRevert:       "Revert",
	KindLog:          "Log",
	KindLogData:      "LogData",
	KindScriptResult: "ScriptResult",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown receipt kind %q", text)
}

// Result is the outcome code carried by a ScriptResult receipt.
type Result uint64

const (
	ResultSuccess Result = iota
	ResultRevert
	ResultPanic
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultRevert:
		return "Revert"
	case ResultPanic:
		return "Panic"
	default:
		return fmt.Sprintf("Result(%d)", uint64(r))
	}
}

// Receipt is a flat record of one observable execution event. ID is the
// contract the event happened in, or the zero ID for the script itself.
type Receipt struct {
	Kind    Kind        `serialize:"true" json:"kind"`
	ID      ids.ID      `serialize:"true" json:"id"`
	To      ids.ID      `serialize:"true" json:"to"`
	Gas     uint64      `serialize:"true" json:"gas"`
	Param1  uint64      `serialize:"true" json:"param1"`
	Param2  uint64      `serialize:"true" json:"param2"`
	Val     uint64      `serialize:"true" json:"val"`
	Ra      uint64      `serialize:"true" json:"ra"`
	Rb      uint64      `serialize:"true" json:"rb"`
	Rc      uint64      `serialize:"true" json:"rc"`
	Rd      uint64      `serialize:"true" json:"rd"`
	Ptr     uint64      `serialize:"true" json:"ptr"`
	Len     uint64      `serialize:"true" json:"len"`
	Digest  ids.ID      `serialize:"true" json:"digest"`
	Data    []byte      `serialize:"true" json:"data"`
	Reason  PanicReason `serialize:"true" json:"reason"`
	Result  Result      `serialize:"true" json:"result"`
	GasUsed uint64      `serialize:"true" json:"gasUsed"`
	PC      uint64      `serialize:"true" json:"pc"`
	IS      uint64      `serialize:"true" json:"is"`
}

// headerSize bounds the encoded size of a receipt's fixed fields, including
// the length prefix of Data.
const headerSize = 214

// Size is the number of bytes [r] adds to its transaction's receipt list.
func (r *Receipt) Size() uint64 { return headerSize + uint64(len(r.Data)) }

func Call(id, to ids.ID, gas, param1, param2, pc, is uint64) *Receipt {
	return &Receipt{Kind: KindCall, ID: id, To: to, Gas: gas, Param1: param1, Param2: param2, PC: pc, IS: is}
}

func Return(id ids.ID, val, pc, is uint64) *Receipt {
	return &Receipt{Kind: KindReturn, ID: id, Val: val, PC: pc, IS: is}
}

func ReturnData(id ids.ID, ptr uint64, digest ids.ID, data []byte, pc, is uint64) *Receipt {
	return &Receipt{
		Kind:   KindReturnData,
		ID:     id,
		Ptr:    ptr,
		Len:    uint64(len(data)),
		Digest: digest,
		Data:   data,
		PC:     pc,
		IS:     is,
	}
}

func Panic(id ids.ID, reason PanicReason, pc, is uint64) *Receipt {
	return &Receipt{Kind: KindPanic, ID: id, Reason: reason, PC: pc, IS: is}
}

func Revert(id ids.ID, ra, pc, is uint64) *Receipt {
	return &Receipt{Kind: KindRevert, ID: id, Ra: ra, PC: pc, IS: is}
}

func LogReceipt(id ids.ID, ra, rb, rc, rd, pc, is uint64) *Receipt {
	return &Receipt{Kind: KindLog, ID: id, Ra: ra, Rb: rb, Rc: rc, Rd: rd, PC: pc, IS: is}
}

func LogDataReceipt(id ids.ID, ra, rb, ptr uint64, digest ids.ID, data []byte, pc, is uint64) *Receipt {
	return &Receipt{
		Kind:   KindLogData,
		ID:     id,
		Ra:     ra,
		Rb:     rb,
		Ptr:    ptr,
		Len:    uint64(len(data)),
		Digest: digest,
		Data:   data,
		PC:     pc,
		IS:     is,
	}
}

// ScriptResult closes the receipt list of every executed transaction.
func ScriptResult(result Result, gasUsed uint64) *Receipt {
	return &Receipt{Kind: KindScriptResult, Result: result, GasUsed: gasUsed}
}
