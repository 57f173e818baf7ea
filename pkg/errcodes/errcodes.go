package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	AuctionNotFound failure.ErrorCode = "AuctionNotFound"
	BuyerNotFound   failure.ErrorCode = "BuyerNotFound"
	ProductNotFound failure.ErrorCode = "ProductNotFound" // Offer references an id missing from the catalog
	QueueDisabled   failure.ErrorCode = "QueueDisabled"

	InvalidProduct        failure.ErrorCode = "InvalidProduct"        // Stock < 0 or broken catalog entry
	InvalidVolumeMultiple failure.ErrorCode = "InvalidVolumeMultiple" // Packaging multiple must be positive
	InvalidOffer          failure.ErrorCode = "InvalidOffer"          // MOQ/qty band is inconsistent
	PriceAboveCeiling     failure.ErrorCode = "PriceAboveCeiling"     // current_price > max_price
	InvalidBuyerName      failure.ErrorCode = "InvalidBuyerName"
	InvalidCatalog        failure.ErrorCode = "InvalidCatalog"
)
