package types

// TxnID is the transaction id type
type TxnID int32
