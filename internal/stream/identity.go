package stream

import "fmt"

// SystemUserID is the fixed actor identity used for events this service
// publishes on behalf of a client.
const SystemUserID = "00000000-0000-0000-0000-000000000000"

// FormatAccountID encodes a numeric Grand Shooting account id as a
// UUID-shaped string, e.g. 42 -> "00000000-0000-0000-0000-000000000042".
//
// gs-stream-api expects account identifiers in UUID format; this is a
// cosmetic compatibility encoding, not a real identifier. It only needs
// to be format-stable, never decoded.
func FormatAccountID(accountID int64) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", accountID)
}
