package session

import "fmt"

// ResultCode is the outcome of a print service operation.
// The ordinal values are part of the service contract.
type ResultCode int

const (
	ResultSuccess ResultCode = iota
	ResultFailed
	ResultTimeout
	ResultInvalidDeviceParameters
	ResultDeviceAlreadyOpen
	ResultInvalidPortNumber
	ResultInvalidIPAddress
	ResultInvalidCallbackObject
	ResultBluetoothNotSupported
	ResultOpenBluetooth
	ResultPortNotOpen
	ResultInvalidBluetoothAddress
	ResultPortDisconnected
)

var resultText = [...]string{
	ResultSuccess:                 "success",
	ResultFailed:                  "operation failed",
	ResultTimeout:                 "operation timed out",
	ResultInvalidDeviceParameters: "invalid device parameters",
	ResultDeviceAlreadyOpen:       "device already open",
	ResultInvalidPortNumber:       "invalid port number",
	ResultInvalidIPAddress:        "invalid IP address",
	ResultInvalidCallbackObject:   "invalid callback object",
	ResultBluetoothNotSupported:   "bluetooth is not supported",
	ResultOpenBluetooth:           "please enable bluetooth",
	ResultPortNotOpen:             "port is not open",
	ResultInvalidBluetoothAddress: "invalid bluetooth address",
	ResultPortDisconnected:        "port is disconnected",
}

// OK reports whether the code is ResultSuccess
func (c ResultCode) OK() bool {
	return c == ResultSuccess
}

// Text returns the human-readable description of the code
func (c ResultCode) Text() string {
	if c < 0 || int(c) >= len(resultText) {
		return fmt.Sprintf("unknown error (code %d)", int(c))
	}
	return resultText[c]
}

func (c ResultCode) String() string {
	return c.Text()
}

// ResultError wraps a non-success ResultCode returned for Op
type ResultError struct {
	Op   string
	Code ResultCode
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Code.Text())
}
