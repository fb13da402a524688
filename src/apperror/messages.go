package apperror

// User facing messages. Callers never see internal identifiers or causes.
const (
	MsgInternal          = "เกิดข้อผิดพลาดภายในระบบ กรุณาลองใหม่อีกครั้ง"
	MsgInvalidRequest    = "ข้อมูลที่ส่งมาไม่ถูกต้อง"
	MsgUnauthorized      = "กรุณาเข้าสู่ระบบ"
	MsgInvalidToken      = "โทเค็นไม่ถูกต้องหรือหมดอายุ"
	MsgAccessDenied      = "ไม่มีสิทธิ์เข้าถึงข้อมูลนี้"
	MsgTooManyRequests   = "มีการเรียกใช้งานบ่อยเกินไป กรุณารอสักครู่"
	MsgOrderNotFound     = "ไม่พบคำสั่งซื้อ"
	MsgOrderNotOwned     = "คุณไม่มีสิทธิ์ยกเลิกคำสั่งซื้อนี้"
	MsgCannotCancel      = "ไม่สามารถยกเลิกคำสั่งซื้อที่ไม่อยู่ในสถานะรอดำเนินการได้"
	MsgInvalidTransition = "ไม่สามารถเปลี่ยนสถานะคำสั่งซื้อได้"
	MsgInvalidStatus     = "สถานะคำสั่งซื้อไม่ถูกต้อง"
	MsgOrderChanged      = "คำสั่งซื้อถูกแก้ไขระหว่างดำเนินการ กรุณาลองใหม่"
	MsgEmptyOrder        = "กรุณาเลือกสินค้าอย่างน้อยหนึ่งรายการ"
	MsgInvalidQuantity   = "จำนวนสินค้าต้องมากกว่า 0"
	MsgMissingContact    = "กรุณาระบุชื่อและเบอร์โทรศัพท์"
	MsgProductNotFound   = "ไม่พบสินค้า"
	MsgInsufficientStock = "สินค้าในสต็อกไม่เพียงพอ"
	MsgProductName       = "กรุณาระบุชื่อสินค้า"
	MsgNegativeValue     = "ราคาและจำนวนสต็อกต้องไม่ติดลบ"
	MsgDiscountNotFound  = "ไม่พบโค้ดส่วนลด"
	MsgDiscountDisabled  = "โค้ดส่วนลดนี้ถูกปิดใช้งาน"
	MsgDiscountBelowMin  = "ยอดสั่งซื้อขั้นต่ำ %.2f บาท (ยอดปัจจุบัน %.2f บาท)"
	MsgDiscountUsedUp    = "โค้ดส่วนลดนี้ถูกใช้ครบจำนวนแล้ว"
	MsgDiscountUserLimit = "คุณใช้โค้ดส่วนลดนี้ครบจำนวนครั้งที่กำหนดแล้ว"
	MsgDiscountNotYet    = "โค้ดส่วนลดนี้ยังไม่เริ่มใช้งาน"
	MsgDiscountExpired   = "โค้ดส่วนลดนี้หมดอายุแล้ว"
	MsgDiscountCodeTaken = "โค้ดส่วนลดนี้มีอยู่แล้ว"
	MsgDiscountInvalid   = "ข้อมูลโค้ดส่วนลดไม่ถูกต้อง"
	MsgInvalidPeriod     = "ช่วงเวลาต้องเป็น day, month หรือ year"
	MsgInvalidDate       = "รูปแบบวันที่ไม่ถูกต้อง"
	MsgWholesaleInvalid  = "จำนวนขั้นต่ำต้องมากกว่า 0 และราคาต้องไม่ติดลบ"
	MsgWholesaleNotFound = "ไม่พบราคาขายส่ง"
)
