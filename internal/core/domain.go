package core

import (
	"errors"
	"strings"
	"time"
)

// Payment types as stored in the ledger.
const (
	PaymentCash     PaymentType = 0
	PaymentWeChat   PaymentType = 1
	PaymentInternal PaymentType = 2
)

// History operations.
const (
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Default history metadata written by the ledger.
const (
	DefaultUpdatedBy  = "System"
	ChangeDescUpdate  = "更新记录"
	ChangeDescDelete  = "删除记录"
	unknownPaymentTag = "未知"
)

// Field limits, counted in characters.
const (
	MaxGuestNameLen = 50
	MaxItemLen      = 100
	MaxRemarkLen    = 200
)

type (
	PaymentType int

	Operation string

	Money struct {
		Cents int64
	}

	// Record is one gift entry in the ledger.
	Record struct {
		ID              int64
		GuestName       string
		Amount          Money
		AmountChinese   string
		ItemDescription string
		PaymentType     PaymentType
		Remark          string
		CreateTime      time.Time
		UpdateTime      time.Time
		IsDeleted       bool

		// Version starts at 1 and grows with every update or delete.
		Version int64
	}

	// RecordInput carries the user editable fields of a record.
	RecordInput struct {
		GuestName       string      `validate:"required,max=50"`
		Amount          Money       `validate:"-"`
		ItemDescription string      `validate:"max=100"`
		PaymentType     PaymentType `validate:"gte=0,lte=2"`
		Remark          string      `validate:"max=200"`
	}

	// RecordValues is a snapshot of the editable fields kept in history.
	RecordValues struct {
		GuestName       string
		Amount          Money
		ItemDescription string
		PaymentType     PaymentType
		Remark          string
	}

	// RecordHistory is one audit entry. New is nil for deletions.
	RecordHistory struct {
		ID         int64
		RecordID   int64
		Old        RecordValues
		New        *RecordValues
		Operation  Operation
		UpdatedBy  string
		UpdateTime time.Time
		ChangeDesc string
	}

	// Page is one page of a listing.
	Page[T any] struct {
		Items      []T
		Total      int
		Page       int
		PageSize   int
		TotalPages int
	}
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyGuestName     = errors.New("empty guest name")
	ErrInvalidPaymentType = errors.New("invalid payment type")
)

// Label returns the display name of the payment type.
func (p PaymentType) Label() string {
	switch p {
	case PaymentCash:
		return "现金"
	case PaymentWeChat:
		return "微信"
	case PaymentInternal:
		return "内收"
	default:
		return unknownPaymentTag
	}
}

// Valid reports whether p is one of the known payment types.
func (p PaymentType) Valid() bool {
	return p >= PaymentCash && p <= PaymentInternal
}

// Normalize trims the free-text fields.
func (in RecordInput) Normalize() RecordInput {
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.ItemDescription = strings.TrimSpace(in.ItemDescription)
	in.Remark = strings.TrimSpace(in.Remark)
	return in
}

// Values returns the snapshot of a record's editable fields.
func (r Record) Values() RecordValues {
	return RecordValues{
		GuestName:       r.GuestName,
		Amount:          r.Amount,
		ItemDescription: r.ItemDescription,
		PaymentType:     r.PaymentType,
		Remark:          r.Remark,
	}
}

// Values returns the input as a snapshot.
func (in RecordInput) Values() RecordValues {
	return RecordValues{
		GuestName:       in.GuestName,
		Amount:          in.Amount,
		ItemDescription: in.ItemDescription,
		PaymentType:     in.PaymentType,
		Remark:          in.Remark,
	}
}

// NewPage builds a page and derives the page count.
func NewPage[T any](items []T, total, page, size int) Page[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: size, TotalPages: pages}
}
