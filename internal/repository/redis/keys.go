package redis

import "fmt"

const ns = "evensta:v1"

func KeyEventCatalog(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:catalog", ns, eventID)
}

func KeyFeeConfig() string {
	return ns + ":settings:fees"
}

func KeyPromoTombstones(promoterID int64) string {
	return fmt.Sprintf("%s:promoter:%d:stopped", ns, promoterID)
}

func KeyIdemPurchase(eventID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:purchase:%d:%s", ns, eventID, idemKey)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
