package repositorytest

import (
	"fmt"
	"sort"
	"time"

	"gigpay/internal/models"
)

func sortedKeys[V any](m map[uint]*V) []uint {
	keys := make([]uint, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// The appliers accept exactly the column keys the services pass. An
// unknown key is a test bug, not data, so it panics.

func applyTransactionUpdates(t *models.Transaction, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			t.Status = value.(string)
		case "processed_at":
			at := value.(time.Time)
			t.ProcessedAt = &at
		case "processed_by":
			by := value.(uint)
			t.ProcessedBy = &by
		case "withdrawal_transaction_id":
			t.WithdrawalDetails.TransactionID = value.(string)
		default:
			panic(fmt.Sprintf("repositorytest: unexpected transaction column %q", key))
		}
	}
}

func applyTaskUpdates(t *models.Task, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			t.Status = value.(string)
		case "is_approved":
			t.IsApproved = value.(bool)
		case "approved_by_id":
			by := value.(uint)
			t.ApprovedByID = &by
		case "rejection_reason":
			t.RejectionReason = value.(string)
		default:
			panic(fmt.Sprintf("repositorytest: unexpected task column %q", key))
		}
	}
}

func applySubmissionUpdates(sub *models.Submission, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			sub.Status = value.(string)
		case "is_paid":
			sub.IsPaid = value.(bool)
		case "feedback":
			sub.Feedback = value.(string)
		case "reviewed_by_id":
			by := value.(uint)
			sub.ReviewedByID = &by
		case "reviewed_at":
			at := value.(time.Time)
			sub.ReviewedAt = &at
		case "rating":
			rating := value.(int)
			sub.Rating = &rating
		case "rejection_reason":
			sub.RejectionReason = value.(string)
		default:
			panic(fmt.Sprintf("repositorytest: unexpected submission column %q", key))
		}
	}
}
