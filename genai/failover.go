// ABOUTME: Failover executor that rotates through an ordered credential set.
// ABOUTME: Promotes the first succeeding credential via an explicit callback; only credential-invalid failures trigger rotation.

package genai

import "context"

// KeySet is an ordered collection of API keys plus the currently active one.
// The set is owned by the key-management collaborator; the executor reads it
// and reports promotions through a callback, it never mutates ambient state.
type KeySet struct {
	Keys   []string
	Active string
}

// HasActive reports whether the set carries a usable active credential: the
// active value must be non-empty and a member of the set.
func (s KeySet) HasActive() bool {
	if s.Active == "" {
		return false
	}
	for _, k := range s.Keys {
		if k == s.Active {
			return true
		}
	}
	return false
}

// Candidates returns the failover order: the active credential first, then
// every other distinct non-empty key in its original relative position.
func (s KeySet) Candidates() []string {
	candidates := []string{s.Active}
	seen := map[string]bool{s.Active: true}
	for _, k := range s.Keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		candidates = append(candidates, k)
	}
	return candidates
}

// PromoteFunc receives the credential that succeeded after a rotation, so the
// owner of the key set can persist it as the new active credential.
type PromoteFunc func(key string)

// Failover runs op against the candidates of set in order. A success on a
// non-active candidate fires promote exactly once before returning. A
// credential-invalid failure moves on to the next candidate; any other
// failure (including a RateLimitedError from Retry) propagates immediately,
// because a different key would not change the outcome.
//
// Returns *NoActiveCredentialError without any remote call when the set is
// empty or has no active member, and *AllCredentialsFailedError when every
// candidate is rejected.
func Failover[T any](ctx context.Context, set KeySet, promote PromoteFunc, op func(ctx context.Context, key string) (T, error)) (T, error) {
	var zero T

	if len(set.Keys) == 0 || !set.HasActive() {
		return zero, &NoActiveCredentialError{}
	}

	candidates := set.Candidates()
	var lastErr error
	for _, key := range candidates {
		result, err := op(ctx, key)
		if err == nil {
			if key != set.Active && promote != nil {
				promote(key)
			}
			return result, nil
		}
		if Classify(err) != KindCredentialInvalid {
			return zero, err
		}
		lastErr = err
	}

	return zero, &AllCredentialsFailedError{Attempts: len(candidates), LastErr: lastErr}
}
