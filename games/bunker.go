package games

// Each player takes a seat in a room and is dealt six attribute cards: a profession,
// biology, health, a hobby, baggage, and one fact
// A shared deck of bunker requirement cards describes the shelter everyone is arguing over
// Each round: the host reveals a bunker card, players take turns presenting one of their
// own cards, then everyone votes on who stays outside
// The most-voted player is eliminated; ties are broken by drawing lots
// The game ends when the round limit passes or half the original group remains

// Display formats:
// Shared column of revealed bunker cards, per-player card fans, vote buttons on each row

// Implementation details:
// - Use websockets to send updates from all joined players to each new player
// - Identify players by cookie on first connection
// - One state machine per room; all actions on a room serialize through it

// How to play
// - One player creates the room and becomes host; others join with the 6-char code
// - The host starts once at least four players are seated
// - Eliminated players keep watching, but can no longer vote or be voted for
