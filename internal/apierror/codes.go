package apierror

// Error type URIs follow the urn:heldairy:error:* pattern and are used as the
// "type" member of RFC 9457 problem documents.
const (
	TypeValidation   = "urn:heldairy:error:validation"
	TypeBadRequest   = "urn:heldairy:error:bad_request"
	TypeNotFound     = "urn:heldairy:error:not_found"
	TypeConflict     = "urn:heldairy:error:conflict"
	TypeRateLimit    = "urn:heldairy:error:rate_limit"
	TypeUnauthorized = "urn:heldairy:error:unauthorized"
	TypeForbidden    = "urn:heldairy:error:forbidden"
	TypeInternal     = "urn:heldairy:error:internal"
	TypeUnavailable  = "urn:heldairy:error:unavailable"

	// TypeInvalidEntryID is a malformed or non-v7 entry id (400)
	TypeInvalidEntryID = "urn:heldairy:error:invalid_entry_id"
	// TypeFutureTimestamp is an entry id whose embedded time is ahead of the server clock (400)
	TypeFutureTimestamp = "urn:heldairy:error:future_timestamp"

	// TypeAIDisabled means remote advice is switched off (409)
	TypeAIDisabled = "urn:heldairy:error:ai_disabled"
	// TypeAIUnavailable means the remote advice service could not be used (503)
	TypeAIUnavailable = "urn:heldairy:error:ai_unavailable"
	// TypeAIInvalidResponse means the remote service answered with unusable content (502)
	TypeAIInvalidResponse = "urn:heldairy:error:ai_invalid_response"
	// TypeNoData means there are not enough entries to compute the result (404)
	TypeNoData = "urn:heldairy:error:no_data"
)

const (
	TitleValidation        = "Validation Error"
	TitleBadRequest        = "Bad Request"
	TitleNotFound          = "Resource Not Found"
	TitleConflict          = "Resource Conflict"
	TitleRateLimit         = "Rate Limit Exceeded"
	TitleUnauthorized      = "Authentication Required"
	TitleForbidden         = "Permission Denied"
	TitleInternal          = "Internal Server Error"
	TitleUnavailable       = "Service Unavailable"
	TitleInvalidEntryID    = "Invalid Entry ID"
	TitleFutureTimestamp   = "Future Timestamp Not Allowed"
	TitleAIDisabled        = "AI Advice Disabled"
	TitleAIUnavailable     = "AI Service Unavailable"
	TitleAIInvalidResponse = "AI Response Invalid"
	TitleNoData            = "Not Enough Data"
)
