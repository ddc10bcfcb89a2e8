package packet

// Message ids for the client-facing wire protocol (spec §6). Each
// constant belongs to exactly one of the message families the spec
// names; ids never get reused once shipped.
const (
	// Session / login / character-select (Broker).
	MsgLoginRequest  uint16 = 0x0010
	MsgLoginResponse uint16 = 0x0011
	MsgCharSelect    uint16 = 0x0012
	MsgCharSelectOK  uint16 = 0x0013

	// Movement (runtime).
	MsgWalk uint16 = 0x0020

	// Combat (runtime).
	MsgAttack uint16 = 0x0030

	// Items (runtime).
	MsgItemEquip   uint16 = 0x0040
	MsgItemUnequip uint16 = 0x0041
	MsgItemUse     uint16 = 0x0042
	MsgItemDrop    uint16 = 0x0043

	// Transaction: trade and buy/sell (runtime).
	MsgTradeRequest  uint16 = 0x0050
	MsgTradeAddItem  uint16 = 0x0051
	MsgTradeSetMoney uint16 = 0x0052
	MsgTradeConfirm  uint16 = 0x0053
	MsgTradeAgree    uint16 = 0x0054
	MsgTradeCancel   uint16 = 0x0055
	MsgShopBuy       uint16 = 0x0056
	MsgShopSell      uint16 = 0x0057

	// Chat, also carrying GM/guild/party command lines prefixed '.'
	// (runtime and Broker each register their own handler for this id).
	MsgChatLine uint16 = 0x0060

	// Guild / party (Broker).
	MsgPartyInvite uint16 = 0x0070
	MsgGuildInvite uint16 = 0x0071

	// MsgSessionRedirect is sent on the reserved disconnect channel
	// (Session.SendDisconnect) carrying the destination runtime's
	// host/port and the handoff token the client reconnects with (spec
	// §4.10 "map-change redirect").
	MsgSessionRedirect uint16 = 0x0080
)
