// Package sales implements the customer/seller service protocol.
//
// Customers and sellers talk through addressed channels: every seller has an inbox, every customer a reply
// channel. All sends are non-blocking and every wait has a deadline, so a lost or late message costs at most
// a timeout. Late acknowledgements are either taken up (if the customer is still looking) or released with a
// CustomerLeft notice.
//
//	customer                      seller
//	   | -- StartServing -------->  |  Idle -> Serving
//	   | <----------- Ack/Reject -- |
//	   | <------ ServiceComplete -- |  after the service delay
//	   | -- TransactionComplete --> |  Serving -> Idle
//	   | -- CustomerLeft ---------> |  Serving -> Idle (customer gave up)
package sales
