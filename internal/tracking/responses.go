package tracking

// TrackingInfo mirrors the fulfillment's tracking fields. Nulls from the
// Admin API are preserved, never defaulted.
type TrackingInfo struct {
	TrackingNumber  *string `json:"trackingNumber"`
	TrackingURL     *string `json:"trackingUrl"`
	TrackingCompany *string `json:"trackingCompany"`
}

// Response is the JSON body of every tracking reply. The storefront widget
// renders Message verbatim and links TrackingInfo when present.
type Response struct {
	Message      string        `json:"message"`
	TrackingInfo *TrackingInfo `json:"trackingInfo,omitempty"`
}

// The closed set of response variants. The widget contract fixes these
// strings; do not edit them without updating the theme extension.
var (
	respMissingParams  = Response{Message: "Missing shop or hmac in query."}
	respInvalidHMAC    = Response{Message: "Invalid HMAC."}
	respInvalidBody    = Response{Message: "Invalid request body."}
	respNoSession      = Response{Message: "Could not find a valid session for this shop. Please reinstall the app."}
	respOrderNotFound  = Response{Message: "Order not found. Please check your order number and email."}
	respNotDispatched  = Response{Message: "Your order has not been dispatched yet."}
	respInternalError  = Response{Message: "An error occurred while tracking your order. Please try again."}
	dispatchedMessage  = "Your order has been dispatched!"
)

func respDispatched(info TrackingInfo) Response {
	return Response{Message: dispatchedMessage, TrackingInfo: &info}
}
