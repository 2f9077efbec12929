package public

import (
	"github.com/powledger/blockchain/business/sys/validate"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/blockchain/peer"
	"github.com/powledger/blockchain/foundation/nameservice"
)

type tx struct {
	Sender        database.AccountID `json:"sender"`
	SenderName    string             `json:"sender_name"`
	Recipient     database.AccountID `json:"recipient"`
	RecipientName string             `json:"recipient_name"`
	Amount        float64            `json:"amount"`
	Signature     string             `json:"signature"`
}

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	return tx{
		Sender:        dbTx.Sender,
		SenderName:    ns.Lookup(dbTx.Sender),
		Recipient:     dbTx.Recipient,
		RecipientName: ns.Lookup(dbTx.Recipient),
		Amount:        dbTx.Amount,
		Signature:     dbTx.Signature,
	}
}

func toTxs(ns *nameservice.NameService, dbTxs []database.Tx) []tx {
	txs := make([]tx, len(dbTxs))
	for i, dbTx := range dbTxs {
		txs[i] = toTx(ns, dbTx)
	}
	return txs
}

type block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash"`
	Proof        uint64 `json:"proof"`
	TimeStamp    uint64 `json:"timestamp"`
	Transactions []tx   `json:"transactions"`
}

func toBlock(ns *nameservice.NameService, dbBlock database.Block) block {
	return block{
		Index:        dbBlock.Index,
		Hash:         dbBlock.Hash(),
		PreviousHash: dbBlock.PreviousHash,
		Proof:        dbBlock.Proof,
		TimeStamp:    dbBlock.TimeStamp,
		Transactions: toTxs(ns, dbBlock.Transactions),
	}
}

type chain struct {
	Length int     `json:"length"`
	Blocks []block `json:"blocks"`
}

type balance struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance float64            `json:"balance"`
}

type mined struct {
	Block           block `json:"block"`
	ConflictPending bool  `json:"conflict_pending"`
}

type resolved struct {
	Replaced    bool `json:"replaced"`
	ChainLength int  `json:"chain_length"`
}

type status struct {
	peer.PeerStatus
	Identity    database.AccountID `json:"identity"`
	Host        string             `json:"host"`
	Difficulty  uint               `json:"difficulty"`
	LatestBlock block              `json:"latest_block"`
}

type verification struct {
	Chain   string `json:"chain"`
	Mempool string `json:"mempool"`
}

type submitted struct {
	Status string `json:"status"`
	Tx     tx     `json:"tx"`
}

// =============================================================================

type newTx struct {
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

// Validate checks the data in the model is considered clean.
func (ntx newTx) Validate() error {
	if err := validate.Check(ntx); err != nil {
		return err
	}
	return nil
}

type newPeer struct {
	Host string `json:"host" validate:"required,max=255"`
}

// Validate checks the data in the model is considered clean.
func (np newPeer) Validate() error {
	if err := validate.Check(np); err != nil {
		return err
	}

	return nil
}
