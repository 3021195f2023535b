package domain

// KeyPrefix namespaces every key decayscope writes to the shared store.
const KeyPrefix = "decayscope:"
