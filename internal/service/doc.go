// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects, the stores
// defined in internal/store and the caches in internal/cache.
//
// Key components:
//
//   - AccountService registers users and issues access tokens on login.
//   - TaskService implements owner-scoped task CRUD. Listings read through the
//     task page cache and every successful write invalidates the owner's pages.
//     It also serves the cached administrator statistics.
//
// Error Handling:
//   - Expected conditions are returned as sentinel errors (ErrUserExists,
//     ErrInvalidCredentials) or passed through from store, domain and auth.
//   - Unexpected failures are wrapped in *ServiceError with the operation name.
//   - Cache failures after a committed write are logged and swallowed; stale
//     entries expire on their own TTL.
//
// The service layer depends on domain entities, store interfaces and cache
// types, never on a specific database driver.
package service
