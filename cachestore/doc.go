// Short-lived cache of typed values, keyed by a namespace and a key.
//
// Includes an interface and implementations using redis and in-process memory. The scoring client uses it so that
// identical message text (copy-paste spam, repeated pings) is only sent to the scoring API once per TTL window.
package cachestore
