package cmd

import "github.com/powledger/blockchain/foundation/blockchain/peer"

type tx struct {
	Sender        string  `json:"sender"`
	SenderName    string  `json:"sender_name"`
	Recipient     string  `json:"recipient"`
	RecipientName string  `json:"recipient_name"`
	Amount        float64 `json:"amount"`
}

type block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash"`
	Proof        uint64 `json:"proof"`
	TimeStamp    int64  `json:"timestamp"`
	Transactions []tx   `json:"transactions"`
}

type chain struct {
	Length int     `json:"length"`
	Blocks []block `json:"blocks"`
}

type balance struct {
	Account string  `json:"account"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type mined struct {
	Block           block `json:"block"`
	ConflictPending bool  `json:"conflict_pending"`
}

type resolved struct {
	Replaced    bool `json:"replaced"`
	ChainLength int  `json:"chain_length"`
}

type verification struct {
	Chain   string `json:"chain"`
	Mempool string `json:"mempool"`
}

type peers []peer.Peer
