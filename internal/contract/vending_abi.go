package contract

// VendingAddress is the deployment address of the VendingMachine contract.
const VendingAddress = "0x06220b5B51337F0864D4A88c4D2DE75de7033C4F"

// Function names on the VendingMachine contract.
const (
	FnDonutBalances  = "donutBalances"
	FnMachineBalance = "getVendingMachineBalance"
	FnOwner          = "owner"
	FnPurchase       = "purchase"
	FnRestock        = "restock"
)

// vendingABI is the compiler output for VendingMachine.sol. Must match the
// deployed bytecode exactly.
const vendingABI = `[
  {"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
  {"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"donutBalances","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getVendingMachineBalance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"purchase","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"restock","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// VendingABIJSON returns the raw ABI JSON.
func VendingABIJSON() []byte { return []byte(vendingABI) }
