// Package integration contains the marketplace integration bounded context.
// It defines the neutral listing model and the ports every marketplace
// adapter implements.
//
// Key concepts:
//   - PlatformAdapter: port interface for one marketplace (Coupang, 11st, SmartStore)
//   - Listing: the platform-neutral product payload sent to adapters
//   - CategoryMapper: resolves neutral category IDs to platform category IDs
//   - PlatformError: the single classified error shape adapters return
//
// Design pattern: ports and adapters. Ports live here in the domain layer,
// adapters in internal/infrastructure/marketplace.
package integration
